// Package queue is a durable Redis-backed job queue with leases. Jobs
// survive process restarts; a reaper returns jobs whose worker died to the
// wait list, so each job is processed by at most one worker at a time.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Default queue parameters.
const (
	defaultPrefix   = "media-jobs"
	defaultLeaseTTL = 30 * time.Second
)

// Queue stores job records and the wait/active lists in Redis.
//
// Key layout under the prefix:
//
//	<prefix>:job:<id>   job record, one JSON value
//	<prefix>:wait       list of waiting job IDs, LPUSH/BLMOVE from the right
//	<prefix>:active     list of job IDs being processed
//	<prefix>:lease:<id> worker ID holding the job, expires with the lease
type Queue struct {
	client   *redis.Client
	prefix   string
	leaseTTL time.Duration
	now      func() time.Time
}

// Option configures a Queue.
type Option func(*Queue)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(q *Queue) {
		if prefix != "" {
			q.prefix = prefix
		}
	}
}

// WithLeaseTTL sets how long a fetched job stays leased without heartbeats.
func WithLeaseTTL(ttl time.Duration) Option {
	return func(q *Queue) {
		if ttl > 0 {
			q.leaseTTL = ttl
		}
	}
}

// WithClock sets the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// New creates a Queue on an existing Redis client.
func New(client *redis.Client, opts ...Option) *Queue {
	q := &Queue{
		client:   client,
		prefix:   defaultPrefix,
		leaseTTL: defaultLeaseTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// NewFromURL creates a Queue from a redis:// URL.
func NewFromURL(redisURL string, opts ...Option) (*Queue, error) {
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return New(redis.NewClient(redisOpts), opts...), nil
}

// LeaseTTL reports the configured lease duration. Workers heartbeat at a
// fraction of this interval.
func (q *Queue) LeaseTTL() time.Duration { return q.leaseTTL }

func (q *Queue) jobKey(id string) string   { return q.prefix + ":job:" + id }
func (q *Queue) leaseKey(id string) string { return q.prefix + ":lease:" + id }
func (q *Queue) waitKey() string           { return q.prefix + ":wait" }
func (q *Queue) activeKey() string         { return q.prefix + ":active" }

// Enqueue stores a new queued job and pushes its ID onto the wait list.
// Returns the generated job ID.
func (q *Queue) Enqueue(ctx context.Context, data JobData) (string, error) {
	id := uuid.NewString()
	rec := Record{
		ID:        id,
		Name:      JobName,
		Data:      data,
		State:     StateQueued,
		CreatedAt: q.now().UnixMilli(),
	}
	if err := q.saveRecord(ctx, &rec); err != nil {
		return "", err
	}
	if err := q.client.LPush(ctx, q.waitKey(), id).Err(); err != nil {
		return "", fmt.Errorf("push job to wait list: %w", err)
	}
	return id, nil
}

// Fetch blocks up to the given duration for a waiting job, moves it to the
// active list, takes a lease for workerID and marks the record active.
// Returns ErrNoJob when the window elapses with nothing to do.
func (q *Queue) Fetch(ctx context.Context, workerID string, block time.Duration) (*Record, error) {
	id, err := q.client.BLMove(ctx, q.waitKey(), q.activeKey(), "RIGHT", "LEFT", block).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoJob
	}
	if err != nil {
		return nil, fmt.Errorf("fetch job: %w", err)
	}

	if err := q.client.Set(ctx, q.leaseKey(id), workerID, q.leaseTTL).Err(); err != nil {
		return nil, fmt.Errorf("take lease for job %s: %w", id, err)
	}

	rec, err := q.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.State = StateActive
	rec.ProcessedAt = q.now().UnixMilli()
	if err := q.saveRecord(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Heartbeat extends the caller's lease. Returns ErrLeaseLost when the
// lease expired or belongs to another worker.
func (q *Queue) Heartbeat(ctx context.Context, workerID, id string) error {
	holder, err := q.client.Get(ctx, q.leaseKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrLeaseLost
	}
	if err != nil {
		return fmt.Errorf("read lease for job %s: %w", id, err)
	}
	if holder != workerID {
		return ErrLeaseLost
	}
	if err := q.client.PExpire(ctx, q.leaseKey(id), q.leaseTTL).Err(); err != nil {
		return fmt.Errorf("extend lease for job %s: %w", id, err)
	}
	return nil
}

// UpdateProgress records progress in 0..100. Progress never moves
// backwards; stale updates are dropped.
func (q *Queue) UpdateProgress(ctx context.Context, id string, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	rec, err := q.Get(ctx, id)
	if err != nil {
		return err
	}
	if progress <= rec.Progress {
		return nil
	}
	rec.Progress = progress
	return q.saveRecord(ctx, rec)
}

// Complete marks the job completed with its result and releases the lease.
func (q *Queue) Complete(ctx context.Context, id string, result *Result) error {
	rec, err := q.Get(ctx, id)
	if err != nil {
		return err
	}
	rec.State = StateCompleted
	rec.Progress = 100
	rec.ReturnValue = result
	rec.FailedReason = ""
	rec.FinishedAt = q.now().UnixMilli()
	if err := q.saveRecord(ctx, rec); err != nil {
		return err
	}
	return q.release(ctx, id)
}

// Fail marks the job failed with the given reason and releases the lease.
func (q *Queue) Fail(ctx context.Context, id, reason string) error {
	rec, err := q.Get(ctx, id)
	if err != nil {
		return err
	}
	rec.State = StateFailed
	rec.FailedReason = reason
	rec.FinishedAt = q.now().UnixMilli()
	if err := q.saveRecord(ctx, rec); err != nil {
		return err
	}
	return q.release(ctx, id)
}

// Get loads a job record by ID.
func (q *Queue) Get(ctx context.Context, id string) (*Record, error) {
	raw, err := q.client.Get(ctx, q.jobKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("job %s: %w", id, ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &rec, nil
}

// RequeueExpired moves active jobs whose lease is gone back to the wait
// list. Returns how many jobs were requeued. Run this periodically.
func (q *Queue) RequeueExpired(ctx context.Context) (int, error) {
	ids, err := q.client.LRange(ctx, q.activeKey(), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("list active jobs: %w", err)
	}

	requeued := 0
	for _, id := range ids {
		exists, err := q.client.Exists(ctx, q.leaseKey(id)).Result()
		if err != nil {
			return requeued, fmt.Errorf("check lease for job %s: %w", id, err)
		}
		if exists > 0 {
			continue
		}

		rec, err := q.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrJobNotFound) {
				// Record expired or was deleted; drop the orphan entry.
				_ = q.client.LRem(ctx, q.activeKey(), 0, id).Err()
				continue
			}
			return requeued, err
		}
		// Finished jobs linger on the active list only if release was
		// interrupted; just drop them.
		if rec.State == StateCompleted || rec.State == StateFailed {
			_ = q.client.LRem(ctx, q.activeKey(), 0, id).Err()
			continue
		}

		rec.State = StateQueued
		if err := q.saveRecord(ctx, rec); err != nil {
			return requeued, err
		}
		pipe := q.client.TxPipeline()
		pipe.LRem(ctx, q.activeKey(), 0, id)
		pipe.LPush(ctx, q.waitKey(), id)
		if _, err := pipe.Exec(ctx); err != nil {
			return requeued, fmt.Errorf("requeue job %s: %w", id, err)
		}
		requeued++
	}
	return requeued, nil
}

// saveRecord writes the record JSON under the job key.
func (q *Queue) saveRecord(ctx context.Context, rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", rec.ID, err)
	}
	if err := q.client.Set(ctx, q.jobKey(rec.ID), raw, 0).Err(); err != nil {
		return fmt.Errorf("store job %s: %w", rec.ID, err)
	}
	return nil
}

// release removes the job from the active list and deletes its lease.
func (q *Queue) release(ctx context.Context, id string) error {
	pipe := q.client.TxPipeline()
	pipe.LRem(ctx, q.activeKey(), 0, id)
	pipe.Del(ctx, q.leaseKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("release job %s: %w", id, err)
	}
	return nil
}
