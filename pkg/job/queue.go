package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"

	"github.com/dmitrymomot/cineverse/pkg/logger"
)

const defaultWorkers = 10

// Queue enqueues and works CineVerse tasks.
type Queue struct {
	pool    *pgxpool.Pool
	client  *river.Client[pgx.Tx]
	tasks   map[string]executor
	logger  *slog.Logger
	mu      sync.Mutex
	started bool
}

// NewQueue creates a queue over pool. Jobs may be enqueued before Start.
func NewQueue(pool *pgxpool.Pool, opts ...Option) (*Queue, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cfg := &config{tasks: make(map[string]executor), logger: logger.NewNope(), workers: defaultWorkers}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.errs) > 0 {
		return nil, errors.Join(cfg.errs...)
	}

	q := &Queue{pool: pool, tasks: cfg.tasks, logger: cfg.logger}

	periodic := make([]*river.PeriodicJob, 0, len(cfg.schedules))
	for _, s := range cfg.schedules {
		name := s.name
		periodic = append(periodic, river.NewPeriodicJob(
			cronSchedule{s.schedule},
			func() (river.JobArgs, *river.InsertOpts) { return &taskArgs{Task: name}, nil },
			nil,
		))
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &worker{queue: q})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:       map[string]river.QueueConfig{river.QueueDefault: {MaxWorkers: cfg.workers}},
		Workers:      workers,
		PeriodicJobs: periodic,
		Logger:       cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("job: create client: %w", err)
	}
	q.client = client
	return q, nil
}

// Tasks lists the registered task names.
func (q *Queue) Tasks() []string {
	return slices.Sorted(maps.Keys(q.tasks))
}

// Enqueue inserts a job for the named task.
func (q *Queue) Enqueue(ctx context.Context, task string, payload any, opts ...EnqueueOption) error {
	if _, ok := q.tasks[task]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, task)
	}
	args, insert, err := buildArgs(task, payload, opts...)
	if err != nil {
		return err
	}
	if _, err := q.client.Insert(ctx, args, insert); err != nil {
		return fmt.Errorf("job: enqueue %s: %w", task, err)
	}
	return nil
}

// Start begins working jobs.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return ErrAlreadyStarted
	}
	if err := q.client.Start(ctx); err != nil {
		return fmt.Errorf("job: start: %w", err)
	}
	q.started = true
	q.logger.InfoContext(ctx, "job queue started", slog.Any("tasks", q.Tasks()))
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.started {
		return ErrNotStarted
	}
	if err := q.client.Stop(ctx); err != nil {
		return fmt.Errorf("job: stop: %w", err)
	}
	q.started = false
	return nil
}

// Healthcheck reports whether the queue runs and its database answers.
func Healthcheck(q *Queue) func(context.Context) error {
	return func(ctx context.Context) error {
		q.mu.Lock()
		started := q.started
		q.mu.Unlock()
		if !started {
			return errors.Join(ErrHealthcheckFailed, ErrNotStarted)
		}
		if err := q.pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Migrate creates or upgrades River's tables.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	m, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("job: migrator: %w", err)
	}
	if _, err := m.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("job: migrate: %w", err)
	}
	return nil
}

type worker struct {
	river.WorkerDefaults[taskArgs]
	queue *Queue
}

func (w *worker) Work(ctx context.Context, j *river.Job[taskArgs]) error {
	run, ok := w.queue.tasks[j.Args.Task]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, j.Args.Task)
	}
	if err := run(ctx, j.Args.Payload); err != nil {
		w.queue.logger.ErrorContext(ctx, "task failed",
			slog.String("task", j.Args.Task),
			slog.Int64("job_id", j.ID),
			slog.Int("attempt", j.Attempt),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}
