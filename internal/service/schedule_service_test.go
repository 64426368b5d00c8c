package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/cascade-scheduler/internal/models"
	"github.com/maheshrc27/cascade-scheduler/internal/repository"
	"github.com/maheshrc27/cascade-scheduler/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCascade struct {
	decision models.CascadeDecision
	calls    int
}

func (s *stubCascade) Decide(ctx context.Context) *models.CascadeDecision {
	s.calls++
	d := s.decision
	return &d
}

type stubVideos struct {
	info *transfer.VideoInfo
	err  error
}

func (s stubVideos) VideoInfo(ctx context.Context, videoID string) (*transfer.VideoInfo, error) {
	return s.info, s.err
}

func newScheduleFixture(t *testing.T, videos VideoService) (ScheduleService, sqlmock.Sqlmock, *stubCascade) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	loc := newYork(t)
	cascade := &stubCascade{decision: models.CascadeDecision{
		Day:             2,
		Date:            "2025-01-08",
		NewLevel:        1,
		Strategy:        models.StrategyEmptyDay,
		OptimalTimeSlot: at(loc, "2025-01-08", 12, 30),
	}}
	svc := NewScheduleService(db, repository.NewSubmissionRepository(db), cascade, videos, ScheduleOptions{
		PlatformOffset:   5 * time.Minute,
		DefaultPlatforms: []string{"facebook", "instagram"},
	})
	return svc, mock, cascade
}

func TestSchedule_StaggersPlatformsInOneTransaction(t *testing.T) {
	svc, mock, _ := newScheduleFixture(t, nil)
	loc := newYork(t)

	mock.ExpectBegin()
	for _, platform := range []string{"twitter", "linkedin"} {
		mock.ExpectExec("INSERT INTO submissions").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), platform, "New listing", sqlmock.AnyArg(), "America/New_York", models.SubmissionStatusQueued).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	res, err := svc.Schedule(context.Background(), &transfer.ScheduleRequest{
		Text:      "  New listing ",
		Platforms: []string{"Twitter", "linkedin", "twitter", ""},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.NotEmpty(t, res.BatchID)
	assert.Equal(t, "2025-01-08", res.Decision.Date)
	assert.Equal(t, "New listing", res.Text)
	require.Len(t, res.Submissions, 2)
	assert.Equal(t, "twitter", res.Submissions[0].Platform)
	assert.True(t, res.Submissions[0].PublishAt.Equal(at(loc, "2025-01-08", 12, 30)))
	assert.True(t, res.Submissions[1].PublishAt.Equal(at(loc, "2025-01-08", 12, 35)))
	assert.NotEqual(t, res.Submissions[0].ID, res.Submissions[1].ID)
}

func TestSchedule_DefaultPlatforms(t *testing.T) {
	svc, mock, _ := newScheduleFixture(t, nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO submissions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO submissions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Schedule(context.Background(), &transfer.ScheduleRequest{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "facebook", res.Submissions[0].Platform)
	assert.Equal(t, "instagram", res.Submissions[1].Platform)
}

func TestSchedule_RollsBackOnInsertFailure(t *testing.T) {
	svc, mock, _ := newScheduleFixture(t, nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO submissions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO submissions").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := svc.Schedule(context.Background(), &transfer.ScheduleRequest{Text: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instagram")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedule_RejectsEmptyText(t *testing.T) {
	svc, mock, cascade := newScheduleFixture(t, nil)

	_, err := svc.Schedule(context.Background(), &transfer.ScheduleRequest{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Zero(t, cascade.calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedule_RejectsMissingPlatforms(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewScheduleService(db, repository.NewSubmissionRepository(db), &stubCascade{}, nil, ScheduleOptions{})
	_, err = svc.Schedule(context.Background(), &transfer.ScheduleRequest{Text: "hi", Platforms: []string{" "}})
	assert.ErrorIs(t, err, ErrNoPlatforms)
}

func TestSchedule_TextFromVideo(t *testing.T) {
	svc, mock, _ := newScheduleFixture(t, stubVideos{info: &transfer.VideoInfo{
		Title:       "Walkthrough: 2019 Azimut 60",
		Description: "Three cabins, low hours.\n\nSubscribe for more.",
	}})

	want := "Walkthrough: 2019 Azimut 60\n\nThree cabins, low hours.\n\nhttps://youtu.be/abc123"
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO submissions").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "facebook", want, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.Schedule(context.Background(), &transfer.ScheduleRequest{VideoID: "abc123", Platforms: []string{"facebook"}})
	require.NoError(t, err)
	assert.Equal(t, want, res.Text)
}

func TestBuildText(t *testing.T) {
	failing := &scheduleService{videos: stubVideos{err: errors.New("quota")}}

	assert.Equal(t, "https://youtu.be/v1",
		failing.buildText(context.Background(), &transfer.ScheduleRequest{VideoID: "v1"}))
	assert.Equal(t, "See it https://youtu.be/v1",
		failing.buildText(context.Background(), &transfer.ScheduleRequest{Text: "See it https://youtu.be/v1", VideoID: "v1"}))
	assert.Equal(t, "Own words\n\nhttps://youtu.be/v1",
		failing.buildText(context.Background(), &transfer.ScheduleRequest{Text: "Own words", VideoID: "v1"}))
}

func TestListSubmissions_ClampsLimit(t *testing.T) {
	svc, mock, _ := newScheduleFixture(t, nil)

	cols := []string{"id", "batch_id", "platform", "text", "publish_at", "timezone", "status", "external_id", "error_message", "created_at", "updated_at"}
	now := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM submissions ORDER BY created_at DESC LIMIT").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("s1", "b1", "facebook", "hi", now, "America/New_York", "queued", "", "", now, now))

	subs, err := svc.ListSubmissions(context.Background(), 1000)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "s1", subs[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPreviewDelegatesToCascade(t *testing.T) {
	svc, _, cascade := newScheduleFixture(t, nil)
	d := svc.Preview(context.Background())
	assert.Equal(t, "2025-01-08", d.Date)
	assert.Equal(t, 1, cascade.calls)
}
