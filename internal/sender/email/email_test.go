package email

import (
	"testing"
)

func TestNewSenderReadsEnvironment(t *testing.T) {
	t.Setenv("SMTP_HOST", "mail.example.com")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("SMTP_USER", "engine")
	t.Setenv("SMTP_FROM", "alerts@example.com")
	t.Setenv("EMAIL_PROVIDER", "smtp")

	s := NewSender()
	if s.smtpHost != "mail.example.com" {
		t.Errorf("smtpHost = %q, want %q", s.smtpHost, "mail.example.com")
	}
	if s.smtpPort != "587" {
		t.Errorf("smtpPort = %q, want %q", s.smtpPort, "587")
	}
	if s.smtpUser != "engine" {
		t.Errorf("smtpUser = %q, want %q", s.smtpUser, "engine")
	}
	if s.smtpFrom != "alerts@example.com" {
		t.Errorf("smtpFrom = %q, want %q", s.smtpFrom, "alerts@example.com")
	}
	if s.providers != nil {
		t.Error("plain SMTP setup must not register API providers")
	}
}

func TestNewSenderDefaults(t *testing.T) {
	t.Setenv("SMTP_HOST", "")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("SMTP_FROM", "")

	s := NewSender()
	if s.smtpHost != "localhost" {
		t.Errorf("smtpHost = %q, want %q", s.smtpHost, "localhost")
	}
	if s.smtpPort != "1025" {
		t.Errorf("smtpPort = %q, want %q", s.smtpPort, "1025")
	}
	if s.smtpFrom != "alerts@alertengine.local" {
		t.Errorf("smtpFrom = %q, want %q", s.smtpFrom, "alerts@alertengine.local")
	}
}
