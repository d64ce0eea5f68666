// Package executor implements the alert evaluation unit: a per-alert
// sequential process that owns the alert's parsed statement, its refresh
// and execute timers, and the registry of live notifiers. All unit-local
// state is touched only by the unit's goroutine; callers interact with
// the unit exclusively through its mailbox.
package executor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"alertengine/internal/database"
	"alertengine/internal/journal"
	"alertengine/internal/metrics"
	"alertengine/internal/mql"
	"alertengine/internal/sender"
	"alertengine/internal/trigger"
	"alertengine/internal/tsdb"
)

const (
	// DefaultRefreshInterval is the cadence of definition refreshes.
	DefaultRefreshInterval = 5 * time.Minute
	// DefaultNotifierIdleTimeout is how long a notifier stays alive
	// without traffic before it starts the shutdown handshake.
	DefaultNotifierIdleTimeout = 2 * time.Minute

	mailboxSize = 128
)

// Repository provides read access to alert definitions. Absence of a
// definition is reported as nil, nil and is a normal outcome.
type Repository interface {
	GetAlert(ctx context.Context, alertID uuid.UUID, org string) (*database.Alert, error)
	GetNotificationGroup(ctx context.Context, groupID string) (*database.NotificationGroup, error)
}

// IdentityJournal persists the unit's single durable record: the alert
// identity assignment.
type IdentityJournal interface {
	Record(ctx context.Context, unitName string, alertID uuid.UUID) error
	Recover(ctx context.Context, unitName string) (uuid.UUID, bool, error)
	Forget(ctx context.Context, unitName string) error
}

var _ Repository = (*database.DB)(nil)
var _ IdentityJournal = (*journal.Journal)(nil)

// Deps are the external collaborators of an evaluation unit.
type Deps struct {
	Repo     Repository
	Journal  IdentityJournal
	Engine   tsdb.Engine
	Delivery sender.Delivery
	Metrics  *metrics.Collector

	Organization        string
	RefreshInterval     time.Duration
	NotifierIdleTimeout time.Duration

	// Parse converts query text into a statement. Defaults to mql.Parse.
	Parse func(text string) (*mql.Statement, error)
}

func (d *Deps) applyDefaults() {
	if d.Organization == "" {
		d.Organization = database.DefaultOrganization
	}
	if d.RefreshInterval <= 0 {
		d.RefreshInterval = DefaultRefreshInterval
	}
	if d.NotifierIdleTimeout <= 0 {
		d.NotifierIdleTimeout = DefaultNotifierIdleTimeout
	}
	if d.Parse == nil {
		d.Parse = mql.Parse
	}
}

// Executor is one alert evaluation unit. Create it with New, start it
// with Start, and talk to it with Tell. The unit recovers its identity
// from the journal before processing its first message.
type Executor struct {
	unitName string
	deps     Deps

	// removal is the supervising boundary's passivation callback. It
	// must only unregister the unit; the unit stops itself.
	removal func(e *Executor)

	mailbox chan Message
	stopCh  chan struct{}
	done    chan struct{}
	stop    sync.Once

	// Everything below is owned by run() and never touched elsewhere.
	alertID     uuid.UUID
	hasIdentity bool
	queryText   string
	stmt        *mql.Statement
	period      time.Duration
	recipients  []database.Recipient

	refreshTimer *repeatingTask
	executeTimer *repeatingTask

	notifiers    map[string]*Notifier
	identities   map[*Notifier]string
	shuttingDown map[*Notifier]struct{}
	backlog      map[string][]*trigger.Trigger

	passivating bool
}

// New creates an evaluation unit. unitName is the unit's stable name at
// the supervising boundary and doubles as its journal key. removal is
// invoked from the unit's goroutine when the unit passivates; it may be
// nil.
func New(unitName string, deps Deps, removal func(e *Executor)) *Executor {
	deps.applyDefaults()
	return &Executor{
		unitName:     unitName,
		deps:         deps,
		removal:      removal,
		mailbox:      make(chan Message, mailboxSize),
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
		notifiers:    make(map[string]*Notifier),
		identities:   make(map[*Notifier]string),
		shuttingDown: make(map[*Notifier]struct{}),
		backlog:      make(map[string][]*trigger.Trigger),
	}
}

// Name returns the unit's stable name.
func (e *Executor) Name() string {
	return e.unitName
}

// Start launches the unit's goroutine. ctx bounds the unit's outbound
// calls (repository, engine, delivery); it does not stop the unit, Stop
// does.
func (e *Executor) Start(ctx context.Context) {
	go e.run(ctx)
}

// Tell posts a message into the unit's mailbox. Returns false if the
// unit has stopped; the caller should then obtain a fresh unit.
func (e *Executor) Tell(msg Message) bool {
	return e.post(msg)
}

// Stop requests the unit to stop and waits for its goroutine to exit.
func (e *Executor) Stop() {
	e.stop.Do(func() { close(e.stopCh) })
	<-e.done
}

// post enqueues a mailbox message. The stop check comes first: the
// mailbox is buffered, so a bare select could accept a message a
// stopped unit will never read.
func (e *Executor) post(msg Message) bool {
	select {
	case <-e.stopCh:
		return false
	case <-e.done:
		return false
	default:
	}
	select {
	case e.mailbox <- msg:
		return true
	case <-e.stopCh:
		return false
	case <-e.done:
		return false
	}
}

func (e *Executor) run(ctx context.Context) {
	defer close(e.done)

	e.recover(ctx)
	// A recovered identity whose definition is already gone passivates
	// during recovery; the unit must stop before taking any message, or
	// the creating envelope would passivate it a second time.
	if e.passivating {
		e.teardown()
		return
	}

	for {
		select {
		case <-e.stopCh:
			e.teardown()
			return
		case msg := <-e.mailbox:
			e.handle(ctx, msg)
			if e.passivating {
				e.teardown()
				return
			}
		}
	}
}

// recover replays the unit's single durable record. A recovered unit
// re-enters active directly, without a second identity write.
func (e *Executor) recover(ctx context.Context) {
	alertID, found, err := e.deps.Journal.Recover(ctx, e.unitName)
	if err != nil {
		slog.Warn("Identity recovery failed, awaiting instantiation",
			"unit", e.unitName,
			"error", err,
		)
		return
	}
	if found {
		slog.Info("Recovered alert identity", "unit", e.unitName, "alert_id", alertID)
		e.becomeActive(ctx, alertID, true)
	}
}

func (e *Executor) handle(ctx context.Context, msg Message) {
	switch m := msg.(type) {
	case Instantiate:
		e.becomeActive(ctx, m.AlertID, false)
	case SendTo:
		if !e.hasIdentity {
			e.becomeActive(ctx, m.AlertID, false)
		}
		if m.Payload != nil {
			e.handle(ctx, m.Payload)
		}
	case Refresh:
		if e.hasIdentity {
			e.refresh(ctx)
		}
	case Execute:
		e.execute(ctx)
	case queryResult:
		e.handleQueryResult(m)
	case notifierShuttingDown:
		e.handleShuttingDown(m.notifier)
	case notifierTerminated:
		e.handleTerminated(ctx, m.notifier)
	case probe:
		m.fn(e)
		close(m.done)
	default:
		slog.Warn("Unhandled message", "unit", e.unitName, "message", msg)
	}
}

// becomeActive assigns the identity. Idempotent: a second instantiation
// for the same unit is a no-op. Fresh instantiation writes the one
// durable record; replayed instantiation must not write again.
func (e *Executor) becomeActive(ctx context.Context, alertID uuid.UUID, recovered bool) {
	if e.hasIdentity {
		return
	}

	if !recovered {
		if err := e.deps.Journal.Record(ctx, e.unitName, alertID); err != nil {
			slog.Error("Failed to record alert identity",
				"unit", e.unitName,
				"alert_id", alertID,
				"error", err,
			)
		}
	}

	e.alertID = alertID
	e.hasIdentity = true
	e.refreshTimer = startRepeating(e.deps.RefreshInterval, func() {
		e.post(Refresh{})
	})

	e.refresh(ctx)
}

// refresh refetches the alert definition and reconciles local state with
// it. A missing definition is fatal to the unit and triggers
// passivation.
func (e *Executor) refresh(ctx context.Context) {
	alert, err := e.deps.Repo.GetAlert(ctx, e.alertID, e.deps.Organization)
	if err != nil {
		slog.Warn("Failed to load alert definition, will retry on next refresh",
			"alert_id", e.alertID,
			"error", err,
		)
		return
	}
	if alert == nil {
		slog.Info("Alert definition gone, passivating", "alert_id", e.alertID)
		e.passivateSelf(ctx)
		return
	}

	e.refreshRecipients(ctx, alert.NotificationGroupID)

	// Period change: the old timer is stopped before the new one starts
	// so the transition cannot double-fire.
	if e.executeTimer == nil || alert.Period != e.period {
		if e.executeTimer != nil {
			slog.Info("Execution period changed, rescheduling",
				"alert_id", e.alertID,
				"old_period", e.period,
				"new_period", alert.Period,
			)
			e.executeTimer.Stop()
		}
		e.period = alert.Period
		e.executeTimer = startRepeating(e.period, func() {
			e.post(Execute{})
		})
	}

	// Query change: the cached statement is cleared before parsing, so a
	// failed parse leaves no statement. The cached text is only updated
	// on success, so a bad text is retried on the next refresh.
	if alert.Query != e.queryText {
		e.stmt = nil
		stmt, err := e.deps.Parse(alert.Query)
		if err != nil {
			slog.Error("Failed to parse alert query",
				"alert_id", e.alertID,
				"error", err,
			)
			e.deps.Metrics.RecordParseFailure()
			return
		}
		e.stmt = stmt
		e.queryText = alert.Query
	}
}

func (e *Executor) refreshRecipients(ctx context.Context, groupID string) {
	if groupID == "" {
		e.recipients = nil
		return
	}
	group, err := e.deps.Repo.GetNotificationGroup(ctx, groupID)
	if err != nil {
		slog.Warn("Failed to load notification group",
			"alert_id", e.alertID,
			"group_id", groupID,
			"error", err,
		)
		return
	}
	if group == nil {
		e.recipients = nil
		return
	}
	e.recipients = group.Recipients
}

// execute submits the cached statement to the query engine. The call
// runs off the unit's goroutine; the result comes back as a message so
// the unit stays responsive.
func (e *Executor) execute(ctx context.Context) {
	if e.stmt == nil {
		return
	}

	e.deps.Metrics.RecordExecution()
	stmt := e.stmt
	go func() {
		result, err := e.deps.Engine.Execute(ctx, stmt)
		e.post(queryResult{result: result, err: err})
	}()
}

func (e *Executor) handleQueryResult(m queryResult) {
	if m.err != nil {
		slog.Error("Query execution failed", "alert_id", e.alertID, "error", m.err)
		return
	}

	// Engine-reported row errors are partial failures; healthy rows are
	// still processed.
	for _, rowErr := range m.result.Errors {
		slog.Warn("Query engine reported row error", "alert_id", e.alertID, "error", rowErr)
	}

	for _, trig := range m.result.Triggers {
		e.route(trig)
	}
}

// route hands one trigger to the notifier owning its identity, creating
// the notifier on first contact. Triggers for a notifier that is mid
// shutdown-handshake go to the pending backlog instead.
func (e *Executor) route(trig *trigger.Trigger) {
	identity := trigger.Identity(trig)
	e.deps.Metrics.RecordTrigger()

	n, ok := e.notifiers[identity]
	if !ok {
		n = e.launchNotifier(identity)
	} else if _, down := e.shuttingDown[n]; down {
		e.backlog[identity] = append(e.backlog[identity], trig)
		return
	}

	if !n.send(trig) {
		// Terminated without the handshake; cleanup arrives as a
		// terminated message.
		slog.Warn("Dropped trigger for dead notifier", "identity", identity)
	}
}

func (e *Executor) launchNotifier(identity string) *Notifier {
	n := newNotifier(identity, e, e.deps.Delivery, e.recipients, e.deps.NotifierIdleTimeout, e.deps.Metrics)
	n.start(context.Background())
	e.notifiers[identity] = n
	e.identities[n] = identity
	return n
}

// handleShuttingDown records the announcement and acknowledges it. The
// ack goes through the notifier's mailbox, after any trigger already
// sent, so the notifier drains before stopping.
func (e *Executor) handleShuttingDown(n *Notifier) {
	e.shuttingDown[n] = struct{}{}
	n.send(shutdownAck{})
}

// handleTerminated cleans up registry state for a dead notifier and, if
// triggers were buffered for its identity, relaunches and replays them
// in original order.
func (e *Executor) handleTerminated(ctx context.Context, n *Notifier) {
	if _, announced := e.shuttingDown[n]; !announced {
		slog.Warn("Notifier terminated without shutdown announcement",
			"identity", e.identities[n],
		)
	}
	delete(e.shuttingDown, n)

	identity, ok := e.identities[n]
	if !ok {
		return
	}
	delete(e.identities, n)
	if e.notifiers[identity] == n {
		delete(e.notifiers, identity)
	}

	pending := e.backlog[identity]
	if len(pending) == 0 {
		return
	}
	delete(e.backlog, identity)

	replacement := e.launchNotifier(identity)
	for _, trig := range pending {
		replacement.send(trig)
	}
}

// passivateSelf tears the unit down after its definition disappeared:
// timers stop, the durable identity record is forgotten, and the
// supervising boundary is asked to unregister the unit so a later
// message creates a fresh one.
func (e *Executor) passivateSelf(ctx context.Context) {
	e.stopTimers()

	if err := e.deps.Journal.Forget(ctx, e.unitName); err != nil {
		slog.Warn("Failed to forget alert identity",
			"unit", e.unitName,
			"error", err,
		)
	}

	e.deps.Metrics.RecordPassivation()
	e.passivating = true
	if e.removal != nil {
		e.removal(e)
	}
}

func (e *Executor) stopTimers() {
	if e.refreshTimer != nil {
		e.refreshTimer.Stop()
		e.refreshTimer = nil
	}
	if e.executeTimer != nil {
		e.executeTimer.Stop()
		e.executeTimer = nil
	}
}

func (e *Executor) teardown() {
	// Close the stop channel first so in-flight posts from notifiers
	// and engine goroutines fail fast instead of blocking on a mailbox
	// nobody reads.
	e.stop.Do(func() { close(e.stopCh) })
	e.stopTimers()
	for _, n := range e.notifiers {
		n.stop()
	}
	e.notifiers = make(map[string]*Notifier)
	e.identities = make(map[*Notifier]string)
	e.shuttingDown = make(map[*Notifier]struct{})
}
