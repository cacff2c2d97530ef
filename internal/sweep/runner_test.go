package sweep_test

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deedflow/internal/sweep"
	"deedflow/pkg/requestcontext"
)

type countingTask struct {
	name  string
	runs  atomic.Int64
	fail  error
	seen  atomic.Value // time.Time from requestcontext
	tickT atomic.Value // now argument
}

func (t *countingTask) Name() string { return t.name }

func (t *countingTask) Run(ctx context.Context, now time.Time) error {
	t.runs.Add(1)
	t.seen.Store(requestcontext.Now(ctx))
	t.tickT.Store(now)
	return t.fail
}

func TestRunOnce_InjectsTickTime(t *testing.T) {
	runner := sweep.NewRunner(slog.Default())
	task := &countingTask{name: "probe"}
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

	runner.RunOnce(context.Background(), task, now)

	assert.Equal(t, int64(1), task.runs.Load())
	assert.Equal(t, now, task.tickT.Load())
	// The context clock matches the tick, so everything a task touches sees
	// one consistent instant.
	assert.Equal(t, now, task.seen.Load())
}

func TestRunOnce_FailureIsContained(t *testing.T) {
	runner := sweep.NewRunner(slog.Default())
	task := &countingTask{name: "probe", fail: errors.New("boom")}

	runner.RunOnce(context.Background(), task, time.Now())
	runner.RunOnce(context.Background(), task, time.Now())

	assert.Equal(t, int64(2), task.runs.Load())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	runner := sweep.NewRunner(slog.Default())
	task := &countingTask{name: "ticker"}
	runner.Register(task, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return task.runs.Load() >= 3
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestTasks(t *testing.T) {
	runner := sweep.NewRunner(slog.Default())
	a := &countingTask{name: "a"}
	b := &countingTask{name: "b"}
	runner.Register(a, time.Minute)
	runner.Register(b, time.Minute)

	tasks := runner.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks["a"].Name())
	assert.Equal(t, "b", tasks["b"].Name())
}
