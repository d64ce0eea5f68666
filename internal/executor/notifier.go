package executor

import (
	"context"
	"log/slog"
	"time"

	"alertengine/internal/database"
	"alertengine/internal/metrics"
	"alertengine/internal/sender"
	"alertengine/internal/trigger"
)

// parent is the notifier's view of its owning evaluation unit.
type parent interface {
	post(msg Message) bool
}

// shutdownAck is the parent's reply to a shutdown announcement. It goes
// through the notifier's mailbox so that every trigger the parent sent
// before acknowledging is processed first.
type shutdownAck struct{}

// Notifier is the live delivery channel for one trigger identity. It
// runs its own goroutine so delivery never blocks the evaluation unit.
//
// Shutdown is a two-phase handshake: when the idle timeout fires the
// notifier announces intent to stop to its parent and keeps processing
// its mailbox until the acknowledgment arrives. Only then does it stop.
// The parent posts the ack after it has started buffering new triggers
// for this identity, so nothing is lost in the race between "decided to
// stop" and "actually stopped".
type Notifier struct {
	identity    string
	parent      parent
	delivery    sender.Delivery
	recipients  []database.Recipient
	idleTimeout time.Duration
	metrics     *metrics.Collector

	mailbox chan any
	stopCh  chan struct{}
	done    chan struct{}
}

const notifierMailboxSize = 64

func newNotifier(identity string, p parent, delivery sender.Delivery, recipients []database.Recipient, idleTimeout time.Duration, collector *metrics.Collector) *Notifier {
	return &Notifier{
		identity:    identity,
		parent:      p,
		delivery:    delivery,
		recipients:  recipients,
		idleTimeout: idleTimeout,
		metrics:     collector,
		mailbox:     make(chan any, notifierMailboxSize),
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Identity returns the trigger identity this notifier serves.
func (n *Notifier) Identity() string {
	return n.identity
}

func (n *Notifier) start(ctx context.Context) {
	go n.run(ctx)
}

// send posts a message into the notifier's mailbox. Returns false if the
// notifier has already terminated. The termination check comes first:
// the mailbox is buffered, so a bare select could accept a message no
// goroutine will ever read.
func (n *Notifier) send(msg any) bool {
	select {
	case <-n.done:
		return false
	default:
	}
	select {
	case n.mailbox <- msg:
		return true
	case <-n.done:
		return false
	}
}

// stop forces the notifier down without a handshake. Used only during
// unit teardown, when the parent is no longer routing.
func (n *Notifier) stop() {
	select {
	case <-n.done:
	default:
		close(n.stopCh)
		<-n.done
	}
}

func (n *Notifier) run(ctx context.Context) {
	// The terminated signal is deferred so the parent hears about every
	// exit path, clean handshake or not.
	defer func() {
		close(n.done)
		n.parent.post(notifierTerminated{notifier: n})
	}()

	idle := time.NewTimer(n.idleTimeout)
	defer idle.Stop()
	announced := false

	for {
		select {
		case <-n.stopCh:
			return
		case <-idle.C:
			if announced {
				continue
			}
			announced = true
			slog.Debug("Notifier announcing shutdown", "identity", n.identity)
			// Posted from a helper goroutine so the notifier keeps
			// draining its mailbox while the parent is busy; the ack
			// cannot arrive before the announcement is processed.
			go n.parent.post(notifierShuttingDown{notifier: n})
		case msg := <-n.mailbox:
			switch m := msg.(type) {
			case *trigger.Trigger:
				n.deliver(ctx, m)
				if !announced {
					if !idle.Stop() {
						select {
						case <-idle.C:
						default:
						}
					}
					idle.Reset(n.idleTimeout)
				}
			case shutdownAck:
				slog.Debug("Notifier shutdown acknowledged", "identity", n.identity)
				return
			}
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, trig *trigger.Trigger) {
	if err := n.delivery.Deliver(ctx, trig, n.recipients); err != nil {
		slog.Error("Failed to deliver trigger",
			"identity", n.identity,
			"error", err,
		)
		n.metrics.RecordDeliveryFailure()
	}
}
