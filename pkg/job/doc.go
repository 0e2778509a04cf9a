// Package job runs background tasks on River, a Postgres-backed queue.
//
// CineVerse uses it, when JOBS_ENABLED is set on a pgsql database, to
// deliver account emails outside the request and to run periodic garbage
// collection of sessions and caches:
//
//	q, err := job.NewQueue(pool,
//	    job.WithTask(mailTask),
//	    job.WithScheduledTask(gcTask),
//	    job.WithLogger(log),
//	)
//	_ = q.Start(ctx)
//	_ = q.Enqueue(ctx, "send_email", msg, job.MaxAttempts(5))
//
// A task has a Name and a Handle(ctx, payload) method; payloads travel as
// JSON. A scheduled task also has a five-field cron Schedule and a
// Handle(ctx) method. River's own tables are created with Migrate.
package job
