package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/cascade-scheduler/internal/models"
	"github.com/maheshrc27/cascade-scheduler/internal/service"
	"github.com/maheshrc27/cascade-scheduler/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusUpdate struct {
	id, status, externalID, errorMessage string
}

type memSubmissions struct {
	subs    map[string]*models.Submission
	updates []statusUpdate
}

func (m *memSubmissions) Create(ctx context.Context, tx *sql.Tx, s *models.Submission) error {
	m.subs[s.ID] = s
	return nil
}

func (m *memSubmissions) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	return m.subs[id], nil
}

func (m *memSubmissions) ListRecent(ctx context.Context, limit int) ([]*models.Submission, error) {
	return nil, nil
}

func (m *memSubmissions) ListStaleQueued(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Submission, error) {
	return nil, nil
}

func (m *memSubmissions) UpdateStatus(ctx context.Context, id, status, externalID, errorMessage string) error {
	m.updates = append(m.updates, statusUpdate{id, status, externalID, errorMessage})
	return nil
}

type stubPosting struct {
	err  error
	reqs []*transfer.PostRequest
}

func (s *stubPosting) FetchPosts(ctx context.Context, start, end time.Time) ([]models.ScheduledPost, error) {
	return nil, nil
}

func (s *stubPosting) CreatePost(ctx context.Context, req *transfer.PostRequest) (string, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return "", s.err
	}
	return "mc-991", nil
}

func queuedSubmission() *models.Submission {
	return &models.Submission{
		ID:        "s1",
		BatchID:   "b1",
		Platform:  "instagram",
		Text:      "Open house Saturday",
		PublishAt: time.Date(2025, 1, 8, 17, 30, 0, 0, time.UTC),
		Timezone:  "America/New_York",
		Status:    models.SubmissionStatusQueued,
	}
}

func TestSubmitPost_Success(t *testing.T) {
	repo := &memSubmissions{subs: map[string]*models.Submission{"s1": queuedSubmission()}}
	ps := &stubPosting{}
	q := NewQueue(repo, ps)

	require.NoError(t, q.SubmitPost(context.Background(), "s1"))

	require.Len(t, ps.reqs, 1)
	assert.Equal(t, "2025-01-08T12:30:00", ps.reqs[0].PublicationDate.DateTime)
	assert.Equal(t, "America/New_York", ps.reqs[0].PublicationDate.Timezone)
	assert.Equal(t, []transfer.PostingProvider{{Network: "instagram"}}, ps.reqs[0].Providers)
	assert.True(t, ps.reqs[0].AutoPublish)
	assert.Equal(t, []statusUpdate{{"s1", models.SubmissionStatusSubmitted, "mc-991", ""}}, repo.updates)
}

func TestSubmitPost_FailureIsRecordedAndNotRetried(t *testing.T) {
	repo := &memSubmissions{subs: map[string]*models.Submission{"s1": queuedSubmission()}}
	q := NewQueue(repo, &stubPosting{err: errors.New("status 400")})

	err := q.SubmitPost(context.Background(), "s1")
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	require.Len(t, repo.updates, 1)
	assert.Equal(t, models.SubmissionStatusFailed, repo.updates[0].status)
	assert.Equal(t, "status 400", repo.updates[0].errorMessage)
}

func TestSubmitPost_SkipsProcessedAndMissing(t *testing.T) {
	done := queuedSubmission()
	done.Status = models.SubmissionStatusSubmitted
	repo := &memSubmissions{subs: map[string]*models.Submission{"s1": done}}
	ps := &stubPosting{}
	q := NewQueue(repo, ps)

	require.NoError(t, q.SubmitPost(context.Background(), "s1"))
	assert.Empty(t, ps.reqs)

	err := q.SubmitPost(context.Background(), "nope")
	assert.ErrorIs(t, err, service.ErrSubmissionNotFound)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleSubmitPostTask_BadPayload(t *testing.T) {
	q := NewQueue(&memSubmissions{subs: map[string]*models.Submission{}}, &stubPosting{})
	err := q.HandleSubmitPostTask(context.Background(), asynq.NewTask(TaskTypeSubmitPost, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestBuildPostRequest_UnknownTimezone(t *testing.T) {
	sub := queuedSubmission()
	sub.Timezone = "Mars/Olympus"
	req := BuildPostRequest(sub)
	assert.Equal(t, "2025-01-08T17:30:00", req.PublicationDate.DateTime)
	assert.Equal(t, "UTC", req.PublicationDate.Timezone)
}

type recordingEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
}

func (r *recordingEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	r.tasks = append(r.tasks, task)
	r.opts = append(r.opts, opts)
	return &asynq.TaskInfo{ID: "t"}, nil
}

func TestEnqueueSubmission(t *testing.T) {
	enq := &recordingEnqueuer{}

	require.NoError(t, EnqueueSubmission(enq, SubmitPostPayload{SubmissionID: "s1"}, time.Hour))
	require.NoError(t, EnqueueSubmission(enq, SubmitPostPayload{SubmissionID: "s2"}, 0))

	require.Len(t, enq.tasks, 2)
	assert.Equal(t, TaskTypeSubmitPost, enq.tasks[0].Type())

	var payload SubmitPostPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	assert.Equal(t, "s1", payload.SubmissionID)

	assert.Len(t, enq.opts[0], 3)
	assert.Len(t, enq.opts[1], 2)
	assert.Equal(t, asynq.TaskIDOpt, enq.opts[0][0].Type())
	assert.Equal(t, asynq.ProcessInOpt, enq.opts[0][2].Type())
}
