package metrics

import (
	"testing"
	"time"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector(nil)

	c.RecordDirective()
	c.RecordDirective()
	c.RecordExecution()
	c.RecordTrigger()
	c.RecordTrigger()
	c.RecordTrigger()
	c.RecordParseFailure()
	c.RecordPassivation()
	c.RecordDeliveryFailure()

	s := c.Snapshot()
	if s.DirectivesReceived != 2 {
		t.Errorf("DirectivesReceived = %d, want 2", s.DirectivesReceived)
	}
	if s.Executions != 1 {
		t.Errorf("Executions = %d, want 1", s.Executions)
	}
	if s.TriggersRouted != 3 {
		t.Errorf("TriggersRouted = %d, want 3", s.TriggersRouted)
	}
	if s.ParseFailures != 1 {
		t.Errorf("ParseFailures = %d, want 1", s.ParseFailures)
	}
	if s.Passivations != 1 {
		t.Errorf("Passivations = %d, want 1", s.Passivations)
	}
	if s.DeliveriesFailed != 1 {
		t.Errorf("DeliveriesFailed = %d, want 1", s.DeliveriesFailed)
	}
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector(nil)

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				c.RecordExecution()
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if got := c.Snapshot().Executions; got != 1000 {
		t.Errorf("Executions = %d, want 1000", got)
	}
}

func TestSnapshotTimestamps(t *testing.T) {
	before := time.Now().UTC()
	c := NewCollector(nil)
	s := c.Snapshot()

	if s.StartedAt.Before(before.Add(-time.Second)) {
		t.Errorf("StartedAt %v too far in the past", s.StartedAt)
	}
	if s.LastUpdated.Before(s.StartedAt) {
		t.Errorf("LastUpdated %v before StartedAt %v", s.LastUpdated, s.StartedAt)
	}
}
