package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/riverqueue/river"
)

// taskArgs is the single River job kind; the task name selects the handler.
type taskArgs struct {
	Task    string          `json:"task"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (taskArgs) Kind() string { return "cineverse:task" }

type enqueueConfig struct {
	scheduledAt time.Time
	uniqueFor   time.Duration
	maxAttempts int
}

// EnqueueOption configures a single insert.
type EnqueueOption func(*enqueueConfig)

// MaxAttempts caps retries of the job.
func MaxAttempts(n int) EnqueueOption {
	return func(c *enqueueConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// ScheduledIn delays the job.
func ScheduledIn(d time.Duration) EnqueueOption {
	return func(c *enqueueConfig) {
		if d > 0 {
			c.scheduledAt = time.Now().Add(d)
		}
	}
}

// UniqueFor drops duplicates of the same task and payload inserted within d.
func UniqueFor(d time.Duration) EnqueueOption {
	return func(c *enqueueConfig) {
		c.uniqueFor = d
	}
}

func buildArgs(task string, payload any, opts ...EnqueueOption) (*taskArgs, *river.InsertOpts, error) {
	args := &taskArgs{Task: task}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("job: marshal payload of %s: %w", task, err)
		}
		args.Payload = raw
	}

	cfg := &enqueueConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	insert := &river.InsertOpts{
		MaxAttempts: cfg.maxAttempts,
		ScheduledAt: cfg.scheduledAt,
	}
	if cfg.uniqueFor > 0 {
		insert.UniqueOpts = river.UniqueOpts{ByArgs: true, ByPeriod: cfg.uniqueFor}
	}
	return args, insert, nil
}
