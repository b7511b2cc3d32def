package daemon

import (
	"testing"
	"time"
)

func TestSchedulerRejectsBadExpression(t *testing.T) {
	if _, err := NewScheduler("not a cron line", func() error { return nil }, quietLogger()); err == nil {
		t.Fatal("bad cron expression accepted")
	}
}

func TestSchedulerNextRun(t *testing.T) {
	s, err := NewScheduler("@every 10m", func() error { return nil }, quietLogger())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	next, ok := s.NextRun()
	if !ok || next.IsZero() {
		t.Fatal("next run not set after construction")
	}
	if !next.After(time.Now()) {
		t.Fatalf("next run %v is not in the future", next)
	}
}

func TestSchedulerSkip(t *testing.T) {
	s, err := NewScheduler("@every 10m", func() error { return nil }, quietLogger())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	orig, _ := s.NextRun()
	s.Skip()
	skipped, _ := s.NextRun()
	if !skipped.After(orig) {
		t.Fatalf("skip did not move the schedule forward: %v <= %v", skipped, orig)
	}
}

func TestSchedulerRunsTask(t *testing.T) {
	taskCh := make(chan struct{}, 1)
	s, err := NewScheduler("@every 1h", func() error {
		taskCh <- struct{}{}
		return nil
	}, quietLogger())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	s.mu.Lock()
	s.nextRun = time.Now().Add(20 * time.Millisecond)
	s.mu.Unlock()

	s.Start()
	defer s.Stop()

	select {
	case <-taskCh:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run in time")
	}

	next, _ := s.NextRun()
	if !next.After(time.Now()) {
		t.Fatalf("next run %v not advanced after task", next)
	}
}

func TestSchedulerStop(t *testing.T) {
	s, err := NewScheduler("@every 1h", func() error { return nil }, quietLogger())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.Start()
	s.Stop()
	// Stopping twice must not panic.
	s.Stop()
}
