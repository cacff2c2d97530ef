// Package sweep runs the periodic background tasks: deadline reminders,
// party nudges, and filing reconciliation.
package sweep

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"deedflow/pkg/requestcontext"
)

// Task is one periodic job. Run receives the tick time explicitly so a task
// evaluates every record against the same instant, and so tests can drive
// time directly.
type Task interface {
	Name() string
	Run(ctx context.Context, now time.Time) error
}

type entry struct {
	task     Task
	interval time.Duration
}

// Runner drives registered tasks on their intervals until the context ends.
// A failing tick is logged and the task keeps its schedule; tasks are
// responsible for their own idempotence across retried ticks.
type Runner struct {
	entries []entry
	logger  *slog.Logger
}

func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// Register adds a task with its tick interval.
func (r *Runner) Register(task Task, interval time.Duration) {
	r.entries = append(r.entries, entry{task: task, interval: interval})
}

// Run blocks until ctx is done. Each task gets its own goroutine and ticker.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, e := range r.entries {
		g.Go(func() error {
			ticker := time.NewTicker(e.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case now := <-ticker.C:
					r.RunOnce(ctx, e.task, now)
				}
			}
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// RunOnce executes a single tick of one task. Also used by the admin
// trigger endpoints.
func (r *Runner) RunOnce(ctx context.Context, task Task, now time.Time) {
	tickCtx := requestcontext.WithTime(ctx, now)
	tickCtx = requestcontext.WithActorID(tickCtx, "system")
	start := time.Now()
	if err := task.Run(tickCtx, now); err != nil {
		r.logger.ErrorContext(ctx, "sweep tick failed",
			"task", task.Name(),
			"error", err,
		)
		return
	}
	r.logger.DebugContext(ctx, "sweep tick complete",
		"task", task.Name(),
		"duration", time.Since(start),
	)
}

// Tasks returns the registered tasks, keyed by name. Used by the admin
// trigger endpoints.
func (r *Runner) Tasks() map[string]Task {
	out := make(map[string]Task, len(r.entries))
	for _, e := range r.entries {
		out[e.task.Name()] = e.task
	}
	return out
}
