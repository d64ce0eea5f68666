// Package payload provides payload builders for trigger delivery channels.
package payload

import (
	"fmt"
	"strings"
	"time"

	"alertengine/internal/trigger"
)

// EmailPayload represents email message content.
type EmailPayload struct {
	Subject string
	Body    string
}

// BuildEmailPayload builds email subject and body from a trigger.
// The subject names the metric when the trigger carries one.
func BuildEmailPayload(trig *trigger.Trigger) EmailPayload {
	subject := "Metric is in alarm"
	if name := trig.Get("name"); name != "" {
		subject = fmt.Sprintf("%s in alarm", name)
	}
	return EmailPayload{
		Subject: subject,
		Body:    buildEmailBody(trig),
	}
}

// buildEmailBody builds the email body from the trigger arguments.
func buildEmailBody(trig *trigger.Trigger) string {
	var sb strings.Builder
	sb.WriteString("A metric has gone into alert.\n\n")
	sb.WriteString("Details:\n")
	for _, arg := range trig.Args {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", arg.Key, arg.Value))
	}
	return sb.String()
}

// WebhookPayload represents a webhook payload.
type WebhookPayload struct {
	Name      string            `json:"name,omitempty"`
	Args      map[string]string `json:"args"`
	Identity  string            `json:"identity"`
	Timestamp string            `json:"timestamp"`
}

// BuildWebhookPayload builds a webhook payload from a trigger.
func BuildWebhookPayload(trig *trigger.Trigger) WebhookPayload {
	args := make(map[string]string, len(trig.Args))
	for _, arg := range trig.Args {
		args[arg.Key] = arg.Value
	}
	return WebhookPayload{
		Name:      trig.Get("name"),
		Args:      args,
		Identity:  trigger.Identity(trig),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
