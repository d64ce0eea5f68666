package payload

import (
	"strings"
	"testing"

	"alertengine/internal/trigger"
)

func TestBuildEmailPayload(t *testing.T) {
	t.Run("named metric", func(t *testing.T) {
		p := BuildEmailPayload(trigger.New("name", "cpu.load", "host", "web1"))
		if p.Subject != "cpu.load in alarm" {
			t.Errorf("Subject = %q", p.Subject)
		}
		if !strings.Contains(p.Body, "host: web1") {
			t.Errorf("Body missing args:\n%s", p.Body)
		}
	})

	t.Run("unnamed metric", func(t *testing.T) {
		p := BuildEmailPayload(trigger.New("host", "web1"))
		if p.Subject != "Metric is in alarm" {
			t.Errorf("Subject = %q", p.Subject)
		}
	})
}

func TestBuildWebhookPayload(t *testing.T) {
	p := BuildWebhookPayload(trigger.New("name", "cpu", "host", "web/1"))
	if p.Name != "cpu" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.Identity != "name:cpu;host:web.1" {
		t.Errorf("Identity = %q", p.Identity)
	}
	if p.Args["host"] != "web/1" {
		t.Errorf("Args = %v", p.Args)
	}
	if p.Timestamp == "" {
		t.Error("Timestamp is empty")
	}
}
