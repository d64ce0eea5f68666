package executor

import (
	"github.com/google/uuid"

	"alertengine/internal/tsdb"
)

// Message is a unit mailbox message. Messages are processed strictly one
// at a time, in arrival order, by the unit's own goroutine.
type Message interface {
	isMessage()
}

// Instantiate assigns the unit its alert identity. The first Instantiate
// records the identity durably and moves the unit to active; any later
// one is a no-op.
type Instantiate struct {
	AlertID uuid.UUID
}

// Refresh asks the unit to refetch its alert definition and reconcile
// timers and the cached statement against it.
type Refresh struct{}

// Execute asks the unit to run its parsed statement against the query
// engine. Ignored while no statement is cached.
type Execute struct{}

// SendTo is the routing envelope used by the supervisor. A unit that has
// no identity yet self-instantiates from the envelope's alert id before
// handling the payload.
type SendTo struct {
	AlertID uuid.UUID
	Payload Message
}

// queryResult carries an asynchronous engine result back to the unit.
type queryResult struct {
	result *tsdb.Result
	err    error
}

// notifierShuttingDown is a notifier's announcement that it intends to
// stop. The unit must acknowledge before the notifier actually stops.
type notifierShuttingDown struct {
	notifier *Notifier
}

// notifierTerminated is delivered when a notifier's goroutine has exited,
// whether after a clean handshake or not.
type notifierTerminated struct {
	notifier *Notifier
}

// probe runs a closure on the unit's goroutine. Used by tests to observe
// unit-local state without racing the mailbox loop.
type probe struct {
	fn   func(e *Executor)
	done chan struct{}
}

func (Instantiate) isMessage()          {}
func (Refresh) isMessage()              {}
func (Execute) isMessage()              {}
func (SendTo) isMessage()               {}
func (queryResult) isMessage()          {}
func (notifierShuttingDown) isMessage() {}
func (notifierTerminated) isMessage()   {}
func (probe) isMessage()                {}
