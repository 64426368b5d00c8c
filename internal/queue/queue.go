package queue

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func EnqueueSubmission(client Enqueuer, payload SubmitPostPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeSubmitPost, taskPayload)

	opts := []asynq.Option{
		asynq.TaskID(payload.SubmissionID),
		asynq.MaxRetry(5),
	}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}

	_, err = client.Enqueue(task, opts...)
	if err != nil {
		return err
	}

	slog.Info("submission enqueued", "submission_id", payload.SubmissionID)
	return nil
}
