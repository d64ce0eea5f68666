// Package email provides trigger delivery by email via SMTP or an API provider.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"alertengine/internal/sender/email/provider"
	"alertengine/internal/sender/payload"
	"alertengine/internal/shared"
	"alertengine/internal/trigger"
)

// Sender implements email trigger delivery.
type Sender struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	smtpFrom     string

	providers *provider.Registry
}

// Config holds email delivery configuration.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	Provider string // "smtp" (default), "resend" or "ses"
}

// NewSender creates a new email sender with configuration from the environment.
func NewSender() *Sender {
	return NewSenderWithConfig(Config{
		Host:     shared.GetEnvOrDefault("SMTP_HOST", "localhost"),
		Port:     shared.GetEnvOrDefault("SMTP_PORT", "1025"),
		User:     shared.GetEnvOrDefault("SMTP_USER", ""),
		Password: shared.GetEnvOrDefault("SMTP_PASSWORD", ""),
		From:     shared.GetEnvOrDefault("SMTP_FROM", "alerts@alertengine.local"),
		Provider: shared.GetEnvOrDefault("EMAIL_PROVIDER", "smtp"),
	})
}

// NewSenderWithConfig creates a new email sender with custom configuration.
func NewSenderWithConfig(cfg Config) *Sender {
	s := &Sender{
		smtpHost:     cfg.Host,
		smtpPort:     cfg.Port,
		smtpUser:     cfg.User,
		smtpPassword: cfg.Password,
		smtpFrom:     cfg.From,
	}

	// API providers are registered only when selected, so a plain SMTP
	// setup never touches provider credentials.
	switch cfg.Provider {
	case "resend":
		s.providers = provider.NewRegistry()
		s.providers.Register(provider.NewResendProvider())
		s.providers.SetPrimary("resend")
	case "ses":
		s.providers = provider.NewRegistry()
		s.providers.Register(provider.NewSESProvider())
		s.providers.SetPrimary("ses")
	}

	return s
}

// Type returns the recipient type this sender handles.
func (s *Sender) Type() string {
	return "email"
}

// Send delivers a trigger by email.
// The address should be a comma-separated list of email addresses.
func (s *Sender) Send(ctx context.Context, address string, trig *trigger.Trigger) error {
	if address == "" {
		return fmt.Errorf("email recipient is required")
	}

	recipients := parseRecipients(address)
	if len(recipients) == 0 {
		return fmt.Errorf("no valid email recipients provided")
	}

	for _, recipient := range recipients {
		if !strings.Contains(recipient, "@") {
			return fmt.Errorf("invalid email address format: %q (missing @ symbol)", recipient)
		}
	}

	emailPayload := payload.BuildEmailPayload(trig)

	// Route through the API provider when one is configured.
	if s.providers != nil {
		return s.providers.Send(ctx, &provider.EmailRequest{
			From:    s.smtpFrom,
			To:      recipients,
			Subject: emailPayload.Subject,
			Body:    emailPayload.Body,
		})
	}

	// Gmail requires the envelope FROM to match the authenticated user.
	actualFrom := s.smtpFrom
	if strings.Contains(s.smtpHost, "gmail.com") && s.smtpUser != "" {
		actualFrom = s.smtpUser
		if !strings.EqualFold(s.smtpFrom, s.smtpUser) {
			slog.Info("Gmail: Using authenticated user as FROM address",
				"authenticated_user", s.smtpUser,
				"configured_from", s.smtpFrom,
			)
		}
	}

	msg := buildEmailMessage(actualFrom, recipients, emailPayload.Subject, emailPayload.Body)

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	port, err := strconv.Atoi(s.smtpPort)
	if err != nil {
		return fmt.Errorf("invalid SMTP port: %s", s.smtpPort)
	}

	// Port 587 uses STARTTLS, port 465 uses SSL/TLS; anything else is
	// treated as a plaintext relay (local dev, mailhog).
	if port == 587 || port == 465 {
		if err := s.sendWithTLS(addr, port, actualFrom, recipients, msg); err != nil {
			return err
		}
	} else {
		if err := s.sendPlain(addr, actualFrom, recipients, msg); err != nil {
			return err
		}
	}

	slog.Info("Email sent",
		"to", recipients,
		"subject", emailPayload.Subject,
	)
	return nil
}

// parseRecipients parses a comma-separated list of email addresses.
func parseRecipients(value string) []string {
	parts := strings.Split(value, ",")
	recipients := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			recipients = append(recipients, trimmed)
		}
	}
	return recipients
}
