package executor

import (
	"sync"
	"time"
)

// repeatingTask fires a callback at a fixed interval until stopped.
// Rescheduling a timer means stopping the old task and starting a new
// one, which guarantees the old cadence never fires again.
type repeatingTask struct {
	interval time.Duration
	stopCh   chan struct{}
	once     sync.Once
}

// startRepeating starts a repeating task that invokes fire every interval.
// The callback runs on the task's own goroutine; it is expected to post a
// marker message into a mailbox rather than do work directly.
func startRepeating(interval time.Duration, fire func()) *repeatingTask {
	t := &repeatingTask{
		interval: interval,
		stopCh:   make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-t.stopCh:
				return
			case <-ticker.C:
				fire()
			}
		}
	}()

	return t
}

// Stop cancels the task. Safe to call more than once.
func (t *repeatingTask) Stop() {
	t.once.Do(func() { close(t.stopCh) })
}
