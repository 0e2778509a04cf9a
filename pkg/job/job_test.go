package job_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cineverse/pkg/job"
)

type greeting struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type greetTask struct {
	err  error
	got  greeting
	runs int
}

func (t *greetTask) Name() string { return "greet" }

func (t *greetTask) Handle(_ context.Context, p greeting) error {
	t.runs++
	t.got = p
	return t.err
}

type sweepTask struct {
	schedule string
	runs     int
}

func (t *sweepTask) Name() string     { return "sweep" }
func (t *sweepTask) Schedule() string { return t.schedule }
func (t *sweepTask) Handle(context.Context) error {
	t.runs++
	return nil
}

func TestNewQueueRequiresPool(t *testing.T) {
	t.Parallel()
	_, err := job.NewQueue(nil)
	assert.ErrorIs(t, err, job.ErrPoolRequired)
}

func TestTasks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("payload is decoded", func(t *testing.T) {
		t.Parallel()
		task := &greetTask{}
		err := job.Run(ctx, []job.Option{job.WithTask(task)}, "greet", json.RawMessage(`{"name":"bob","count":2}`))
		require.NoError(t, err)
		assert.Equal(t, greeting{Name: "bob", Count: 2}, task.got)
	})

	t.Run("empty payload", func(t *testing.T) {
		t.Parallel()
		task := &greetTask{}
		require.NoError(t, job.Run(ctx, []job.Option{job.WithTask(task)}, "greet", nil))
		assert.Equal(t, 1, task.runs)
		assert.Zero(t, task.got)
	})

	t.Run("invalid payload", func(t *testing.T) {
		t.Parallel()
		task := &greetTask{}
		err := job.Run(ctx, []job.Option{job.WithTask(task)}, "greet", json.RawMessage(`{"count":"two"}`))
		assert.ErrorIs(t, err, job.ErrInvalidPayload)
		assert.Zero(t, task.runs)
	})

	t.Run("handler error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		err := job.Run(ctx, []job.Option{job.WithTask(&greetTask{err: boom})}, "greet", nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("scheduled task", func(t *testing.T) {
		t.Parallel()
		task := &sweepTask{schedule: "*/15 * * * *"}
		require.NoError(t, job.Run(ctx, []job.Option{job.WithScheduledTask(task)}, "sweep", nil))
		assert.Equal(t, 1, task.runs)
	})

	t.Run("unknown task", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, job.Run(ctx, nil, "missing", nil), job.ErrUnknownTask)
	})
}

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 7, 0, 0, time.UTC)
	tests := []struct {
		expr string
		want time.Time
	}{
		{"*/15 * * * *", time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC)},
		{"0 * * * *", time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)},
		{"30 2 * * *", time.Date(2026, 3, 2, 2, 30, 0, 0, time.UTC)},
		{"@hourly", time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)},
		{"@every 30m", now.Add(30 * time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			s, err := job.ParseSchedule(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Next(now))
		})
	}

	_, err := job.ParseSchedule("every tuesday")
	assert.ErrorIs(t, err, job.ErrInvalidSchedule)
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	name, payload, opts, err := job.BuildArgs("greet", greeting{Name: "bob"}, job.MaxAttempts(5), job.UniqueFor(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "greet", name)
	assert.JSONEq(t, `{"name":"bob","count":0}`, string(payload))
	assert.Equal(t, 5, opts.MaxAttempts)
	assert.True(t, opts.UniqueOpts.ByArgs)
	assert.Equal(t, time.Hour, opts.UniqueOpts.ByPeriod)

	_, payload, opts, err = job.BuildArgs("greet", nil, job.ScheduledIn(time.Minute))
	require.NoError(t, err)
	assert.Nil(t, payload)
	assert.WithinDuration(t, time.Now().Add(time.Minute), opts.ScheduledAt, 5*time.Second)

	_, _, _, err = job.BuildArgs("greet", make(chan int))
	assert.Error(t, err)
}
