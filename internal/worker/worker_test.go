package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niiell/aiweb/internal/pipeline"
	"github.com/niiell/aiweb/internal/queue"
)

func setupWorker(t *testing.T, runner Runner) (*Worker, *queue.Queue, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	q := queue.New(client)
	w := New(q, runner, WithID("test-worker"), WithFetchBlock(100*time.Millisecond))
	return w, q, mr
}

func TestProcessOneCompletes(t *testing.T) {
	var gotData queue.JobData
	w, q, _ := setupWorker(t, RunnerFunc(func(_ context.Context, data queue.JobData, report pipeline.ProgressFunc) (*queue.Result, error) {
		gotData = data
		report(25)
		report(100)
		return &queue.Result{
			Message:   "ok",
			Artifacts: map[string]string{"audio": "clip-audio.wav"},
		}, nil
	}))
	ctx := context.Background()

	id, err := q.Enqueue(ctx, queue.JobData{FilePath: "/uploads/clip.mp4", OriginalName: "clip.mp4"})
	require.NoError(t, err)

	require.NoError(t, w.ProcessOne(ctx))

	rec, err := q.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, queue.StateCompleted, rec.State)
	assert.Equal(t, 100, rec.Progress)
	require.NotNil(t, rec.ReturnValue)
	assert.Equal(t, "clip-audio.wav", rec.ReturnValue.Artifacts["audio"])
	assert.Equal(t, "clip.mp4", gotData.OriginalName)
}

func TestProcessOneFailure(t *testing.T) {
	w, q, _ := setupWorker(t, RunnerFunc(func(context.Context, queue.JobData, pipeline.ProgressFunc) (*queue.Result, error) {
		return nil, errors.New("extract audio: corrupt container")
	}))
	ctx := context.Background()

	id, err := q.Enqueue(ctx, queue.JobData{FilePath: "/uploads/bad.mp4"})
	require.NoError(t, err)

	require.NoError(t, w.ProcessOne(ctx))

	rec, err := q.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, queue.StateFailed, rec.State)
	assert.Contains(t, rec.FailedReason, "corrupt container")
	assert.Nil(t, rec.ReturnValue)
}

func TestProcessOneEmptyQueue(t *testing.T) {
	w, _, _ := setupWorker(t, RunnerFunc(func(context.Context, queue.JobData, pipeline.ProgressFunc) (*queue.Result, error) {
		t.Fatal("runner must not be called")
		return nil, nil
	}))

	err := w.ProcessOne(context.Background())
	assert.ErrorIs(t, err, queue.ErrNoJob)
}

func TestProcessOneRejectsUnknownJobName(t *testing.T) {
	w, q, mr := setupWorker(t, RunnerFunc(func(context.Context, queue.JobData, pipeline.ProgressFunc) (*queue.Result, error) {
		t.Fatal("runner must not be called for unknown job names")
		return nil, nil
	}))
	ctx := context.Background()

	// Plant a record with a foreign name directly in the substrate.
	rec := queue.Record{ID: "alien", Name: "resize-image", State: queue.StateQueued}
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	mr.Set("media-jobs:job:alien", string(raw))
	_, err = mr.Lpush("media-jobs:wait", "alien")
	require.NoError(t, err)

	require.NoError(t, w.ProcessOne(ctx))

	got, err := q.Get(ctx, "alien")
	require.NoError(t, err)
	assert.Equal(t, queue.StateFailed, got.State)
	assert.Contains(t, got.FailedReason, "unknown job name")
}

func TestProcessOneProgressIsPersisted(t *testing.T) {
	w, q, _ := setupWorker(t, RunnerFunc(func(ctx context.Context, _ queue.JobData, report pipeline.ProgressFunc) (*queue.Result, error) {
		report(20)
		report(45)
		report(85)
		return &queue.Result{Message: "ok", Artifacts: map[string]string{}}, nil
	}))
	ctx := context.Background()

	id, err := q.Enqueue(ctx, queue.JobData{FilePath: "/uploads/clip.mp4"})
	require.NoError(t, err)
	require.NoError(t, w.ProcessOne(ctx))

	rec, err := q.Get(ctx, id)
	require.NoError(t, err)
	// Complete pins progress at 100 regardless of the last report.
	assert.Equal(t, 100, rec.Progress)
	assert.Equal(t, queue.StateCompleted, rec.State)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	w, _, _ := setupWorker(t, RunnerFunc(func(context.Context, queue.JobData, pipeline.ProgressFunc) (*queue.Result, error) {
		return &queue.Result{}, nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
