package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"alertengine/internal/sender/payload"
	"alertengine/internal/trigger"
)

func TestSender_Send(t *testing.T) {
	var received payload.WebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewSender()
	trig := trigger.New("name", "cpu", "host", "web/1")
	if err := s.Send(context.Background(), server.URL, trig); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if received.Identity != "name:cpu;host:web.1" {
		t.Errorf("Identity = %q", received.Identity)
	}
}

func TestSender_Send_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewSender()
	if err := s.Send(context.Background(), server.URL, trigger.New("name", "cpu")); err == nil {
		t.Fatal("Send() succeeded, want error on 500")
	}
}

func TestSender_Send_InvalidURL(t *testing.T) {
	s := NewSender()
	tests := []string{"", "not-a-url", "ftp://example.com"}
	for _, address := range tests {
		if err := s.Send(context.Background(), address, trigger.New("name", "cpu")); err == nil {
			t.Errorf("Send(%q) succeeded, want error", address)
		}
	}
}
