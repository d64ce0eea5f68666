// Package processor provides the directive intake loop. It reads alert
// directives from Kafka and routes them to evaluation units through the
// supervising boundary.
package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"alertengine/internal/consumer"
	"alertengine/internal/events"
	"alertengine/internal/executor"
	"alertengine/internal/metrics"
)

// Router delivers a message to the evaluation unit for an alert id,
// creating the unit when absent.
type Router interface {
	Tell(ctx context.Context, alertID uuid.UUID, msg executor.Message)
}

// Processor routes consumed directives to evaluation units.
type Processor struct {
	consumer *consumer.Consumer
	router   Router
	metrics  *metrics.Collector
}

// NewProcessor creates a new directive processor.
func NewProcessor(consumer *consumer.Consumer, router Router, collector *metrics.Collector) *Processor {
	return &Processor{
		consumer: consumer,
		router:   router,
		metrics:  collector,
	}
}

// ProcessDirectives continuously reads directives from Kafka and routes
// them by alert id. Malformed messages are logged and skipped; intake is
// fire-and-forget, so no failure propagates back to the producer.
func (p *Processor) ProcessDirectives(ctx context.Context) error {
	slog.Info("Starting directive processing loop")

	for {
		select {
		case <-ctx.Done():
			slog.Info("Directive processing loop stopped")
			return nil
		default:
			directive, _, err := p.consumer.ReadDirective(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				slog.Error("Failed to read directive", "error", err)
				continue
			}

			p.Route(ctx, directive)
		}
	}
}

// Route maps one directive to a unit message and delivers it.
func (p *Processor) Route(ctx context.Context, directive *events.AlertDirective) {
	msg, alertID, err := Translate(directive)
	if err != nil {
		slog.Warn("Skipping directive", "alert_id", directive.AlertID, "action", directive.Action, "error", err)
		return
	}

	slog.Debug("Routing directive", "alert_id", alertID, "action", directive.Action)
	p.metrics.RecordDirective()
	p.router.Tell(ctx, alertID, msg)
}

// Translate converts a directive into the unit message its action names.
func Translate(directive *events.AlertDirective) (executor.Message, uuid.UUID, error) {
	alertID, err := uuid.Parse(directive.AlertID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("invalid alert id %q: %w", directive.AlertID, err)
	}

	switch directive.Action {
	case events.ActionInstantiate:
		return executor.Instantiate{AlertID: alertID}, alertID, nil
	case events.ActionRefresh:
		return executor.Refresh{}, alertID, nil
	case events.ActionExecute:
		return executor.Execute{}, alertID, nil
	default:
		return nil, uuid.Nil, fmt.Errorf("unknown action %q", directive.Action)
	}
}
