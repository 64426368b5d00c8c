package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/cascade-scheduler/internal/metrics"
	"github.com/maheshrc27/cascade-scheduler/internal/models"
	"github.com/maheshrc27/cascade-scheduler/internal/service"
	"github.com/maheshrc27/cascade-scheduler/internal/transfer"
)

func (j *Queue) HandleSubmitPostTask(ctx context.Context, task *asynq.Task) error {
	var payload SubmitPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	return j.SubmitPost(ctx, payload.SubmissionID)
}

// SubmitPost sends one queued submission to the posting service and records
// the outcome. Submissions that are no longer queued are skipped.
func (j *Queue) SubmitPost(ctx context.Context, submissionID string) error {
	sub, err := j.sr.GetByID(ctx, submissionID)
	if err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("%w: %s: %w", service.ErrSubmissionNotFound, submissionID, asynq.SkipRetry)
	}
	if sub.Status != models.SubmissionStatusQueued {
		slog.Info("submission already processed", "submission_id", sub.ID, "status", sub.Status)
		return nil
	}

	externalID, err := j.ps.CreatePost(ctx, BuildPostRequest(sub))
	if err != nil {
		metrics.Submissions.WithLabelValues(sub.Platform, "failed").Inc()
		slog.Error("error submitting post", "submission_id", sub.ID, "platform", sub.Platform, "error", err)
		if uerr := j.sr.UpdateStatus(ctx, sub.ID, models.SubmissionStatusFailed, "", err.Error()); uerr != nil {
			slog.Error("error saving submission status", "submission_id", sub.ID, "error", uerr)
		}
		// CreatePost already retries transient failures.
		return fmt.Errorf("submit %s: %v: %w", sub.ID, err, asynq.SkipRetry)
	}

	metrics.Submissions.WithLabelValues(sub.Platform, "submitted").Inc()
	if err := j.sr.UpdateStatus(ctx, sub.ID, models.SubmissionStatusSubmitted, externalID, ""); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	slog.Info("post submitted", "submission_id", sub.ID, "platform", sub.Platform, "external_id", externalID)
	return nil
}

func BuildPostRequest(sub *models.Submission) *transfer.PostRequest {
	publishAt := sub.PublishAt
	tz := sub.Timezone
	if loc, err := time.LoadLocation(tz); tz != "" && err == nil {
		publishAt = publishAt.In(loc)
	} else {
		tz = publishAt.Location().String()
	}

	return &transfer.PostRequest{
		PublicationDate: transfer.PublicationDate{
			DateTime: publishAt.Format("2006-01-02T15:04:05"),
			Timezone: tz,
		},
		Text:        sub.Text,
		Providers:   []transfer.PostingProvider{{Network: sub.Platform}},
		AutoPublish: true,
	}
}
