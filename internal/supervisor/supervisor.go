// Package supervisor is the boundary that owns alert evaluation units.
// It routes messages by alert id, creating units on first contact, and
// honors passivation requests so a later message for the same id always
// reaches a fresh unit.
package supervisor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"alertengine/internal/executor"
)

// Supervisor routes envelopes to evaluation units by alert id.
type Supervisor struct {
	deps executor.Deps

	mu    sync.Mutex
	units map[string]*executor.Executor
}

// New creates a supervisor. Units are created lazily on first Tell.
func New(deps executor.Deps) *Supervisor {
	return &Supervisor{
		deps:  deps,
		units: make(map[string]*executor.Executor),
	}
}

// UnitName returns the stable unit name for an alert id. It doubles as
// the unit's identity journal key.
func UnitName(alertID uuid.UUID) string {
	return "alert-" + alertID.String()
}

// Tell routes msg to the unit for alertID, creating the unit if absent.
// A freshly created unit recovers its identity from the journal and
// self-instantiates from the envelope when no record exists.
func (s *Supervisor) Tell(ctx context.Context, alertID uuid.UUID, msg executor.Message) {
	envelope := executor.SendTo{AlertID: alertID, Payload: msg}
	for {
		unit := s.getOrCreate(ctx, alertID)
		if unit.Tell(envelope) {
			return
		}
		// The unit stopped between lookup and post. Drop it from the
		// table and retry against a fresh one.
		s.removeIfCurrent(unit)
	}
}

// UnitCount returns the number of live units.
func (s *Supervisor) UnitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.units)
}

// Shutdown stops all units and waits for them to drain.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	units := make([]*executor.Executor, 0, len(s.units))
	for _, unit := range s.units {
		units = append(units, unit)
	}
	s.units = make(map[string]*executor.Executor)
	s.mu.Unlock()

	slog.Info("Stopping evaluation units", "count", len(units))
	var wg sync.WaitGroup
	for _, unit := range units {
		wg.Add(1)
		go func(u *executor.Executor) {
			defer wg.Done()
			u.Stop()
		}(unit)
	}
	wg.Wait()
}

func (s *Supervisor) getOrCreate(ctx context.Context, alertID uuid.UUID) *executor.Executor {
	name := UnitName(alertID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if unit, ok := s.units[name]; ok {
		return unit
	}

	slog.Debug("Creating evaluation unit", "unit", name)
	unit := executor.New(name, s.deps, s.removeIfCurrent)
	s.units[name] = unit
	unit.Start(ctx)
	return unit
}

// removeIfCurrent unregisters a unit, but only while the table still
// points at that exact unit; a replacement created in the meantime is
// left alone.
func (s *Supervisor) removeIfCurrent(unit *executor.Executor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.units[unit.Name()] == unit {
		delete(s.units, unit.Name())
	}
}
