package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/cascade-scheduler/internal/models"
	"github.com/maheshrc27/cascade-scheduler/internal/queue"
	"github.com/maheshrc27/cascade-scheduler/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSubmissions struct {
	subs map[string]*models.Submission
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
	var out []*models.Submission
	for _, s := range m.subs {
		if s.Status == models.SubmissionStatusQueued && s.CreatedAt.Before(createdBefore) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubmissions) UpdateStatus(ctx context.Context, id, status, externalID, errorMessage string) error {
	s := m.subs[id]
	s.Status, s.ExternalID, s.ErrorMessage = status, externalID, errorMessage
	return nil
}

// flakyEnqueuer fails every Enqueue while down is set.
type flakyEnqueuer struct {
	down   bool
	err    error
	queued []string
}

func (f *flakyEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.down {
		return nil, f.err
	}
	var payload queue.SubmitPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return nil, err
	}
	f.queued = append(f.queued, payload.SubmissionID)
	return &asynq.TaskInfo{ID: payload.SubmissionID}, nil
}

type stubPosting struct{}

func (stubPosting) FetchPosts(ctx context.Context, start, end time.Time) ([]models.ScheduledPost, error) {
	return nil, nil
}

func (stubPosting) CreatePost(ctx context.Context, req *transfer.PostRequest) (string, error) {
	return "mc-12", nil
}

func TestSweep_RequeuesSubmissionLostOnEnqueue(t *testing.T) {
	now := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
	repo := &memSubmissions{subs: map[string]*models.Submission{
		"s1": {ID: "s1", Platform: "facebook", Text: "hi", Status: models.SubmissionStatusQueued,
			PublishAt: now.Add(3 * time.Hour), Timezone: "UTC", CreatedAt: now.Add(-20 * time.Minute)},
		"s2": {ID: "s2", Platform: "instagram", Text: "hi", Status: models.SubmissionStatusQueued,
			PublishAt: now.Add(3 * time.Hour), Timezone: "UTC", CreatedAt: now.Add(-time.Minute)},
	}}

	enq := &flakyEnqueuer{down: true, err: errors.New("redis: connection refused")}
	require.Error(t, queue.EnqueueSubmission(enq, queue.SubmitPostPayload{SubmissionID: "s1"}, 0))

	sweep := NewSubmissionSweepJob(repo, enq, 10*time.Minute)
	sweep.now = func() time.Time { return now }

	n, err := sweep.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	enq.down = false
	n, err = sweep.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"s1"}, enq.queued)

	worker := queue.NewQueue(repo, stubPosting{})
	require.NoError(t, worker.SubmitPost(context.Background(), "s1"))
	assert.Equal(t, models.SubmissionStatusSubmitted, repo.subs["s1"].Status)
	assert.Equal(t, "mc-12", repo.subs["s1"].ExternalID)

	n, err = sweep.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweep_PendingTaskIsNotAnError(t *testing.T) {
	now := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
	repo := &memSubmissions{subs: map[string]*models.Submission{
		"s1": {ID: "s1", Status: models.SubmissionStatusQueued, CreatedAt: now.Add(-time.Hour)},
	}}
	sweep := NewSubmissionSweepJob(repo, &flakyEnqueuer{down: true, err: asynq.ErrTaskIDConflict}, 10*time.Minute)
	sweep.now = func() time.Time { return now }

	n, err := sweep.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
