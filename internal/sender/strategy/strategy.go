// Package strategy defines the interface for trigger delivery strategies.
package strategy

import (
	"context"

	"alertengine/internal/trigger"
)

// TriggerSender is the interface that all delivery strategies must implement.
type TriggerSender interface {
	// Send delivers a trigger to the specified address.
	// The address format depends on the sender type:
	//   - Email: email address(es) as comma-separated string
	//   - Webhook: webhook URL
	Send(ctx context.Context, address string, trig *trigger.Trigger) error

	// Type returns the recipient type this sender handles (e.g., "email", "webhook").
	Type() string
}

// Registry manages trigger delivery strategies.
type Registry struct {
	senders map[string]TriggerSender
}

// NewRegistry creates a new sender registry.
func NewRegistry() *Registry {
	return &Registry{
		senders: make(map[string]TriggerSender),
	}
}

// Register registers a sender strategy.
func (r *Registry) Register(sender TriggerSender) {
	r.senders[sender.Type()] = sender
}

// Get retrieves a sender strategy by type.
func (r *Registry) Get(senderType string) (TriggerSender, bool) {
	sender, ok := r.senders[senderType]
	return sender, ok
}

// List returns all registered sender types.
func (r *Registry) List() []string {
	types := make([]string, 0, len(r.senders))
	for t := range r.senders {
		types = append(types, t)
	}
	return types
}
