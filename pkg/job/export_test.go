package job

import (
	"context"
	"encoding/json"

	"github.com/riverqueue/river"
)

// BuildArgs exposes job argument building to tests.
func BuildArgs(task string, payload any, opts ...EnqueueOption) (string, json.RawMessage, *river.InsertOpts, error) {
	args, insert, err := buildArgs(task, payload, opts...)
	if err != nil {
		return "", nil, nil, err
	}
	return args.Task, args.Payload, insert, nil
}

// Run executes the registered task the way a worker would.
func Run(ctx context.Context, opts []Option, task string, payload json.RawMessage) error {
	cfg := &config{tasks: make(map[string]executor)}
	for _, opt := range opts {
		opt(cfg)
	}
	run, ok := cfg.tasks[task]
	if !ok {
		return ErrUnknownTask
	}
	return run(ctx, payload)
}
