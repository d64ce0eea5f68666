package executor

import (
	"context"
	"testing"
	"time"

	"alertengine/internal/metrics"
	"alertengine/internal/trigger"
)

type fakeParent struct {
	msgs chan Message
}

func (p *fakeParent) post(msg Message) bool {
	p.msgs <- msg
	return true
}

func (p *fakeParent) next(t *testing.T) Message {
	t.Helper()
	select {
	case m := <-p.msgs:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for parent message")
		return nil
	}
}

func TestNotifierDrainsMailboxBeforeAck(t *testing.T) {
	parent := &fakeParent{msgs: make(chan Message, 8)}
	delivery := newFakeDelivery()
	n := newNotifier("name:cpu;host:q", parent, delivery, nil, time.Hour, metrics.NewCollector(nil))
	n.start(context.Background())

	// Triggers queued ahead of the ack must all be delivered before the
	// notifier stops.
	t1 := trigger.New("name", "cpu", "host", "q", "seq", "1")
	t2 := trigger.New("name", "cpu", "host", "q", "seq", "2")
	n.send(t1)
	n.send(t2)
	n.send(shutdownAck{})

	if got := delivery.next(t); got != t1 {
		t.Errorf("first delivery = %s, want seq 1", trigger.Identity(got))
	}
	if got := delivery.next(t); got != t2 {
		t.Errorf("second delivery = %s, want seq 2", trigger.Identity(got))
	}

	if _, ok := parent.next(t).(notifierTerminated); !ok {
		t.Error("expected terminated signal after ack")
	}
	if n.send(trigger.New("name", "late")) {
		t.Error("send must fail after termination")
	}
}

func TestNotifierAnnouncesOnIdleTimeout(t *testing.T) {
	parent := &fakeParent{msgs: make(chan Message, 8)}
	n := newNotifier("name:cpu", parent, newFakeDelivery(), nil, 20*time.Millisecond, metrics.NewCollector(nil))
	n.start(context.Background())

	announce, ok := parent.next(t).(notifierShuttingDown)
	if !ok {
		t.Fatal("expected shutdown announcement on idle timeout")
	}
	if announce.notifier != n {
		t.Error("announcement names a different notifier")
	}

	// The notifier must keep running until the ack arrives.
	select {
	case <-n.done:
		t.Fatal("notifier stopped before acknowledgment")
	case <-time.After(50 * time.Millisecond):
	}

	n.send(shutdownAck{})
	if _, ok := parent.next(t).(notifierTerminated); !ok {
		t.Error("expected terminated signal after ack")
	}
}

func TestNotifierTerminatedSignalOnForcedStop(t *testing.T) {
	parent := &fakeParent{msgs: make(chan Message, 8)}
	n := newNotifier("name:cpu", parent, newFakeDelivery(), nil, time.Hour, metrics.NewCollector(nil))
	n.start(context.Background())

	n.stop()
	if _, ok := parent.next(t).(notifierTerminated); !ok {
		t.Error("expected terminated signal after forced stop")
	}
}
