package sched

import (
	"context"
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 8, 31, hour, min, 0, 0, time.Local)
}

func newTestScheduler(now time.Time) *Scheduler {
	s := New()
	s.now = func() time.Time { return now }
	return s
}

func TestIntervalTaskNotDueBeforeInterval(t *testing.T) {
	s := newTestScheduler(at(9, 0))
	s.AddInterval("news", 1*time.Minute, func(ctx context.Context) {})

	if due := s.Due(at(9, 0).Add(30 * time.Second)); len(due) != 0 {
		t.Errorf("task due too early: %d tasks", len(due))
	}
	if due := s.Due(at(9, 1)); len(due) != 1 {
		t.Errorf("task should be due after one interval, got %d", len(due))
	}
}

func TestIntervalTaskRepeats(t *testing.T) {
	s := newTestScheduler(at(9, 0))
	runs := 0
	s.AddInterval("news", 1*time.Minute, func(ctx context.Context) { runs++ })

	ctx := context.Background()
	s.Tick(ctx, at(9, 1))
	s.Tick(ctx, at(9, 1).Add(30*time.Second)) // not due again yet
	s.Tick(ctx, at(9, 2))

	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestDailyTaskFiresOncePerDay(t *testing.T) {
	s := newTestScheduler(at(9, 0))
	runs := 0
	if err := s.AddDaily("report-midday", "11:30", func(ctx context.Context) { runs++ }); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	s.Tick(ctx, at(11, 29))
	if runs != 0 {
		t.Fatal("fired before its time of day")
	}
	s.Tick(ctx, at(11, 30))
	s.Tick(ctx, at(11, 31))
	s.Tick(ctx, at(15, 0))
	if runs != 1 {
		t.Errorf("runs = %d, want exactly 1 for the day", runs)
	}

	// Next day it is due again.
	s.Tick(ctx, at(11, 30).AddDate(0, 0, 1))
	if runs != 2 {
		t.Errorf("runs = %d, want 2 after next day's trigger", runs)
	}
}

func TestDailyTaskLateStartStillFires(t *testing.T) {
	// Registered after the scheduled time has already passed today: the
	// registration instant is the last run, so it waits for tomorrow.
	s := newTestScheduler(at(16, 0))
	runs := 0
	if err := s.AddDaily("report-close", "15:30", func(ctx context.Context) { runs++ }); err != nil {
		t.Fatal(err)
	}

	s.Tick(context.Background(), at(16, 1))
	if runs != 0 {
		t.Errorf("task fired for a trigger before registration")
	}
	s.Tick(context.Background(), at(15, 30).AddDate(0, 0, 1))
	if runs != 1 {
		t.Errorf("runs = %d, want 1 on the following day", runs)
	}
}

func TestAddDailyRejectsBadTime(t *testing.T) {
	s := New()
	if err := s.AddDaily("bad", "25:99", func(ctx context.Context) {}); err == nil {
		t.Error("expected error for invalid HH:MM")
	}
}

func TestTasksRunSequentiallyInRegistrationOrder(t *testing.T) {
	s := newTestScheduler(at(9, 0))
	var order []string
	s.AddInterval("a", time.Minute, func(ctx context.Context) { order = append(order, "a") })
	s.AddInterval("b", time.Minute, func(ctx context.Context) { order = append(order, "b") })

	s.Tick(context.Background(), at(9, 1))

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("order = %v, want [a b]", order)
	}
}

func TestPanicDoesNotStopOtherTasks(t *testing.T) {
	s := newTestScheduler(at(9, 0))
	ran := false
	s.AddInterval("boom", time.Minute, func(ctx context.Context) { panic("task exploded") })
	s.AddInterval("after", time.Minute, func(ctx context.Context) { ran = true })

	s.Tick(context.Background(), at(9, 1))

	if !ran {
		t.Error("a panicking task must not prevent later due tasks from running")
	}
}

func TestPanickingTaskStaysScheduled(t *testing.T) {
	s := newTestScheduler(at(9, 0))
	runs := 0
	s.AddInterval("boom", time.Minute, func(ctx context.Context) {
		runs++
		panic("task exploded")
	})

	s.Tick(context.Background(), at(9, 1))
	s.Tick(context.Background(), at(9, 2))

	if runs != 2 {
		t.Errorf("runs = %d, want 2: failure in one cycle must not affect the next due run", runs)
	}
}
