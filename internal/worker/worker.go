// Package worker drains the job queue and runs the dubbing pipeline for
// each fetched job, maintaining the lease through heartbeats.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/niiell/aiweb/internal/pipeline"
	"github.com/niiell/aiweb/internal/queue"
)

// Runner executes one job. *pipeline.Engine satisfies it.
type Runner interface {
	Run(ctx context.Context, data queue.JobData, report pipeline.ProgressFunc) (*queue.Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, data queue.JobData, report pipeline.ProgressFunc) (*queue.Result, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, data queue.JobData, report pipeline.ProgressFunc) (*queue.Result, error) {
	return f(ctx, data, report)
}

// Worker consumes jobs from one queue.
type Worker struct {
	queue  *queue.Queue
	runner Runner
	id     string
	log    *slog.Logger

	fetchBlock     time.Duration
	heartbeatEvery time.Duration
	reapEvery      time.Duration
}

// Option configures a Worker.
type Option func(*Worker)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(w *Worker) {
		if log != nil {
			w.log = log
		}
	}
}

// WithID overrides the generated worker ID.
func WithID(id string) Option {
	return func(w *Worker) {
		if id != "" {
			w.id = id
		}
	}
}

// WithFetchBlock sets how long one fetch waits for a job.
func WithFetchBlock(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.fetchBlock = d
		}
	}
}

// New creates a Worker. The heartbeat interval derives from the queue's
// lease TTL so a healthy worker never loses its lease.
func New(q *queue.Queue, runner Runner, opts ...Option) *Worker {
	host, _ := os.Hostname()
	w := &Worker{
		queue:          q,
		runner:         runner,
		id:             fmt.Sprintf("%s-%s", host, uuid.NewString()),
		log:            slog.Default(),
		fetchBlock:     5 * time.Second,
		heartbeatEvery: q.LeaseTTL() / 3,
		reapEvery:      time.Minute,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ID returns the worker's identity used for leases.
func (w *Worker) ID() string { return w.id }

// Run drains the queue until the context is canceled. Expired leases of
// crashed workers are reaped periodically.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("worker started", "worker", w.id)

	reap := time.NewTicker(w.reapEvery)
	defer reap.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-reap.C:
			if n, err := w.queue.RequeueExpired(ctx); err != nil {
				w.log.Warn("requeue sweep failed", "error", err)
			} else if n > 0 {
				w.log.Info("requeued expired jobs", "count", n)
			}
		default:
		}

		if err := w.ProcessOne(ctx); err != nil {
			if errors.Is(err, queue.ErrNoJob) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Error("fetch failed", "error", err)
			time.Sleep(time.Second)
		}
	}
}

// ProcessOne fetches and fully processes a single job. Returns
// queue.ErrNoJob when the wait list stayed empty for the fetch window.
func (w *Worker) ProcessOne(ctx context.Context) error {
	rec, err := w.queue.Fetch(ctx, w.id, w.fetchBlock)
	if err != nil {
		return err
	}

	log := w.log.With("job", rec.ID)
	if rec.Name != queue.JobName {
		log.Error("rejecting unknown job name", "name", rec.Name)
		return w.queue.Fail(ctx, rec.ID, "unknown job name: "+rec.Name)
	}

	log.Info("processing job", "file", rec.Data.OriginalName)

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var result *queue.Result
	g, jobCtx := errgroup.WithContext(jobCtx)

	g.Go(func() error {
		defer cancel()
		var runErr error
		result, runErr = w.runner.Run(jobCtx, rec.Data, func(p int) {
			// Progress is advisory; a failed update never fails the job.
			if uerr := w.queue.UpdateProgress(jobCtx, rec.ID, p); uerr != nil {
				log.Debug("progress update dropped", "error", uerr)
			}
		})
		return runErr
	})

	g.Go(func() error {
		ticker := time.NewTicker(w.heartbeatEvery)
		defer ticker.Stop()
		for {
			select {
			case <-jobCtx.Done():
				return nil
			case <-ticker.C:
				if err := w.queue.Heartbeat(jobCtx, w.id, rec.ID); err != nil {
					return err
				}
			}
		}
	})

	runErr := g.Wait()
	switch {
	case errors.Is(runErr, queue.ErrLeaseLost):
		// Another worker may own the job now; leave its record alone.
		log.Warn("lease lost mid-job, abandoning")
		return nil
	case runErr != nil:
		log.Error("job failed", "error", runErr)
		return w.queue.Fail(ctx, rec.ID, runErr.Error())
	default:
		log.Info("job completed")
		return w.queue.Complete(ctx, rec.ID, result)
	}
}
