package job

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/cascade-scheduler/internal/queue"
	"github.com/maheshrc27/cascade-scheduler/internal/repository"
)

const sweepBatchSize = 100

// SubmissionSweepJob re-enqueues submissions that were saved but never made
// it onto the queue. The worker skips rows that are no longer queued, so a
// duplicate enqueue is harmless.
type SubmissionSweepJob struct {
	sr         repository.SubmissionRepository
	client     queue.Enqueuer
	staleAfter time.Duration
	now        func() time.Time
	timeout    time.Duration
}

func NewSubmissionSweepJob(sr repository.SubmissionRepository, client queue.Enqueuer, staleAfter time.Duration) *SubmissionSweepJob {
	return &SubmissionSweepJob{
		sr:         sr,
		client:     client,
		staleAfter: staleAfter,
		now:        time.Now,
		timeout:    time.Minute,
	}
}

// Run is the cron entry point.
func (j *SubmissionSweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.Sweep(ctx); err != nil {
		slog.Error("submission sweep failed", "error", err)
	}
}

// Sweep returns the number of submissions put back on the queue.
func (j *SubmissionSweepJob) Sweep(ctx context.Context) (int, error) {
	stale, err := j.sr.ListStaleQueued(ctx, j.now().Add(-j.staleAfter), sweepBatchSize)
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, sub := range stale {
		err := queue.EnqueueSubmission(j.client, queue.SubmitPostPayload{SubmissionID: sub.ID}, 0)
		switch {
		case err == nil:
			requeued++
		case errors.Is(err, asynq.ErrTaskIDConflict):
			// still waiting on the queue
		default:
			slog.Warn("unable to re-enqueue submission", "submission_id", sub.ID, "error", err)
		}
	}

	if len(stale) > 0 {
		slog.Info("submission sweep", "stale", len(stale), "requeued", requeued)
	}
	return requeued, nil
}
