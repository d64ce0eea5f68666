// Package sender provides a coordinator for multi-channel trigger delivery.
// It uses the strategy pattern to route triggers to appropriate senders.
package sender

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"alertengine/internal/database"
	"alertengine/internal/sender/email"
	"alertengine/internal/sender/retry"
	"alertengine/internal/sender/strategy"
	"alertengine/internal/sender/webhook"
	"alertengine/internal/trigger"
)

// Delivery is the capability dispatch units use to notify recipients.
// Implementations must tolerate repeated delivery of the same trigger.
type Delivery interface {
	Deliver(ctx context.Context, trig *trigger.Trigger, recipients []database.Recipient) error
}

// Sender coordinates trigger delivery across multiple channels.
type Sender struct {
	registry *strategy.Registry
}

// NewSender creates a new sender coordinator with all strategies registered.
func NewSender() *Sender {
	registry := strategy.NewRegistry()

	registry.Register(email.NewSender())
	registry.Register(webhook.NewSender())

	return &Sender{
		registry: registry,
	}
}

// NewSenderWithRegistry creates a new sender coordinator with a custom registry.
// This is useful for testing or custom sender configurations.
func NewSenderWithRegistry(registry *strategy.Registry) *Sender {
	return &Sender{
		registry: registry,
	}
}

// Deliver sends a trigger to every enabled recipient.
// It returns an error only when every send failed; partial failure is
// logged and considered delivered.
func (s *Sender) Deliver(ctx context.Context, trig *trigger.Trigger, recipients []database.Recipient) error {
	identity := trigger.Identity(trig)

	if len(recipients) == 0 {
		slog.Warn("No recipients for trigger", "trigger_identity", identity)
		return fmt.Errorf("no recipients for trigger %s", identity)
	}

	var errors []string
	successfulSends := 0

	for _, recipient := range recipients {
		if !recipient.Enabled {
			continue
		}

		sender, ok := s.registry.Get(recipient.Type)
		if !ok {
			slog.Warn("Unknown recipient type, skipping",
				"type", recipient.Type,
				"trigger_identity", identity,
			)
			continue
		}

		// Retry with exponential backoff for transient failures.
		retryCfg := retry.DefaultConfig()
		operation := fmt.Sprintf("send_%s_%s", recipient.Type, identity)

		err := retry.WithRetry(ctx, retryCfg, operation, func() error {
			return sender.Send(ctx, recipient.Address, trig)
		})

		if err != nil {
			errors = append(errors, fmt.Sprintf("%s (%s): %s", recipient.Type, recipient.Address, err.Error()))
		} else {
			successfulSends++
		}
	}

	if len(errors) > 0 && successfulSends == 0 {
		return fmt.Errorf("all sends failed: %s", strings.Join(errors, "; "))
	}

	if len(errors) > 0 {
		slog.Warn("Some sends failed",
			"trigger_identity", identity,
			"successful", successfulSends,
			"failed", len(errors),
			"errors", strings.Join(errors, "; "),
		)
	}

	return nil
}
