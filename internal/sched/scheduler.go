// Package sched drives the pipeline tasks on fixed cadences. Tasks run
// strictly sequentially inside a single loop: a slow task delays later due
// tasks, which is acceptable because correctness only requires eventual,
// not punctual, execution.
package sched

import (
	"context"
	"fmt"
	"time"

	"market-pulse/internal/logger"
)

// TaskFunc is one scheduled unit of work. Failures are the task's own
// business; the scheduler only guarantees it keeps running.
type TaskFunc func(ctx context.Context)

// Task binds a function to either a fixed interval or a fixed time of day.
type Task struct {
	Name  string
	Every time.Duration // fixed interval, zero when At is used
	At    string        // "HH:MM" time of day, empty when Every is used
	Fn    TaskFunc

	lastRun time.Time
}

// Scheduler holds the task table.
type Scheduler struct {
	tasks []*Task
	now   func() time.Time
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{now: time.Now}
}

// AddInterval registers a task that runs every `every`. The first run is
// one interval after registration; callers wanting an immediate first run
// invoke the function themselves at startup.
func (s *Scheduler) AddInterval(name string, every time.Duration, fn TaskFunc) {
	s.tasks = append(s.tasks, &Task{
		Name:    name,
		Every:   every,
		Fn:      fn,
		lastRun: s.now(),
	})
}

// AddDaily registers a task that runs once per day at the given HH:MM.
func (s *Scheduler) AddDaily(name, at string, fn TaskFunc) error {
	if _, err := time.Parse("15:04", at); err != nil {
		return fmt.Errorf("task %s: bad time of day '%s'", name, at)
	}
	s.tasks = append(s.tasks, &Task{
		Name:    name,
		At:      at,
		Fn:      fn,
		lastRun: s.now(),
	})
	return nil
}

// Due returns the tasks that should run at the given instant, in
// registration order. It does not mutate task state, so it can be called
// freely in tests without real time passing.
func (s *Scheduler) Due(now time.Time) []*Task {
	var due []*Task
	for _, t := range s.tasks {
		if t.due(now) {
			due = append(due, t)
		}
	}
	return due
}

func (t *Task) due(now time.Time) bool {
	if t.Every > 0 {
		return now.Sub(t.lastRun) >= t.Every
	}
	// Fixed time of day: due once we pass today's HH:MM and have not run
	// since that instant.
	at, _ := time.Parse("15:04", t.At)
	today := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	return !now.Before(today) && t.lastRun.Before(today)
}

// Tick executes every task due at the given instant, one after another.
// A task panic is contained and logged; it never takes down the loop.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	for _, t := range s.Due(now) {
		t.lastRun = now
		s.runTask(ctx, t)
	}
}

func (s *Scheduler) runTask(ctx context.Context, t *Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Task panicked", "task", t.Name, "panic", fmt.Sprint(r))
		}
	}()

	start := time.Now()
	t.Fn(ctx)
	logger.TaskRun(ctx, t.Name, time.Since(start).Milliseconds())
}

// Run polls for due tasks once per second until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx, s.now())
		case <-ctx.Done():
			return
		}
	}
}
