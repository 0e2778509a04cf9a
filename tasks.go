package cineverse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/cineverse/pkg/job"
	"github.com/dmitrymomot/cineverse/pkg/mailer"
)

// Task names registered on the job queue.
const (
	TaskSendEmail = "send_email"
	TaskGC        = "gc"
)

const emailMaxAttempts = 5

// collector is anything holding entries that expire without being read:
// session stores, memory and file caches.
type collector struct {
	gc   func(ctx context.Context) (int, error)
	name string
}

// gcTask removes expired sessions and cache entries.
type gcTask struct {
	log        *slog.Logger
	schedule   string
	collectors []collector
}

func (t *gcTask) Name() string     { return TaskGC }
func (t *gcTask) Schedule() string { return t.schedule }

func (t *gcTask) Handle(ctx context.Context) error {
	var errs []error
	for _, c := range t.collectors {
		n, err := c.gc(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		if n > 0 {
			t.log.InfoContext(ctx, "expired entries removed", slog.String("store", c.name), slog.Int("count", n))
		}
	}
	return errors.Join(errs...)
}

// runCron runs the task on its schedule until ctx is done. It stands in for
// the job queue's periodic jobs when the queue is disabled.
func (t *gcTask) runCron(ctx context.Context) error {
	sched, err := job.ParseSchedule(t.schedule)
	if err != nil {
		return err
	}
	c := cron.New()
	c.Schedule(sched, cron.FuncJob(func() {
		if err := t.Handle(ctx); err != nil {
			t.log.ErrorContext(ctx, "garbage collection failed", slog.Any("error", err))
		}
	}))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// sendEmailTask delivers a queued message.
type sendEmailTask struct {
	mailer *mailer.Mailer
}

func (t *sendEmailTask) Name() string { return TaskSendEmail }

func (t *sendEmailTask) Handle(ctx context.Context, msg mailer.Message) error {
	return t.mailer.Send(ctx, msg)
}

// queuedMailer hands messages to the job queue instead of sending them
// during the request.
type queuedMailer struct {
	queue *job.Queue
}

func (q *queuedMailer) Send(ctx context.Context, msg mailer.Message) error {
	if msg.To == "" {
		return mailer.ErrNoRecipient
	}
	return q.queue.Enqueue(ctx, TaskSendEmail, msg, job.MaxAttempts(emailMaxAttempts))
}

// runQueue starts the queue and stops it when ctx is done.
func runQueue(q *job.Queue, timeout time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := q.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return q.Stop(stopCtx)
	}
}
