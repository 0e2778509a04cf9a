package job

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// executor runs one task with its JSON payload.
type executor func(ctx context.Context, payload json.RawMessage) error

type scheduled struct {
	schedule cron.Schedule
	name     string
}

type config struct {
	tasks     map[string]executor
	logger    *slog.Logger
	schedules []scheduled
	errs      []error
	workers   int
}

// Option configures a Queue.
type Option func(*config)

// WithTask registers a task. The payload type is inferred from Handle.
func WithTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) Option {
	return func(c *config) {
		c.tasks[task.Name()] = func(ctx context.Context, raw json.RawMessage) error {
			var payload P
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &payload); err != nil {
					return errors.Join(ErrInvalidPayload, err)
				}
			}
			return task.Handle(ctx, payload)
		}
	}
}

// WithScheduledTask registers a task that River enqueues on its cron
// schedule (minute hour day month weekday, or a descriptor like @hourly).
func WithScheduledTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](task T) Option {
	return func(c *config) {
		sched, err := ParseSchedule(task.Schedule())
		if err != nil {
			c.errs = append(c.errs, err)
			return
		}
		c.tasks[task.Name()] = func(ctx context.Context, _ json.RawMessage) error {
			return task.Handle(ctx)
		}
		c.schedules = append(c.schedules, scheduled{name: task.Name(), schedule: sched})
	}
}

// WithWorkers sets the number of concurrent workers. The default is 10.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	s, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchedule, err)
	}
	return s, nil
}

// cronSchedule adapts a cron schedule to river.PeriodicSchedule.
type cronSchedule struct{ cron.Schedule }

func (s cronSchedule) Next(t time.Time) time.Time { return s.Schedule.Next(t) }
