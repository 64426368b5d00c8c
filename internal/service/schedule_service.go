package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/cascade-scheduler/internal/models"
	"github.com/maheshrc27/cascade-scheduler/internal/repository"
	"github.com/maheshrc27/cascade-scheduler/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type ScheduleService interface {
	Preview(ctx context.Context) *models.CascadeDecision
	Schedule(ctx context.Context, req *transfer.ScheduleRequest) (*transfer.ScheduleResult, error)
	ListSubmissions(ctx context.Context, limit int) ([]*models.Submission, error)
}

type ScheduleOptions struct {
	PlatformOffset   time.Duration
	DefaultPlatforms []string
}

type scheduleService struct {
	db      *sql.DB
	sr      repository.SubmissionRepository
	cascade CascadeService
	videos  VideoService
	opts    ScheduleOptions
}

// NewScheduleService wires the scheduler. videos may be nil when no YouTube
// key is configured.
func NewScheduleService(
	db *sql.DB,
	sr repository.SubmissionRepository,
	cascade CascadeService,
	videos VideoService,
	opts ScheduleOptions) ScheduleService {
	return &scheduleService{
		db:      db,
		sr:      sr,
		cascade: cascade,
		videos:  videos,
		opts:    opts,
	}
}

func (s *scheduleService) Preview(ctx context.Context) *models.CascadeDecision {
	return s.cascade.Decide(ctx)
}

func (s *scheduleService) Schedule(ctx context.Context, req *transfer.ScheduleRequest) (*transfer.ScheduleResult, error) {
	if req == nil {
		req = &transfer.ScheduleRequest{}
	}

	platforms := normalizePlatforms(req.Platforms)
	if len(platforms) == 0 {
		platforms = normalizePlatforms(s.opts.DefaultPlatforms)
	}
	if len(platforms) == 0 {
		slog.Info(ErrNoPlatforms.Error())
		return nil, ErrNoPlatforms
	}

	text := s.buildText(ctx, req)
	if text == "" {
		slog.Info(ErrEmptyText.Error())
		return nil, ErrEmptyText
	}

	decision := s.cascade.Decide(ctx)

	batchID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate batch id: %w", err)
	}

	tz := decision.OptimalTimeSlot.Location().String()
	submissions := make([]*models.Submission, 0, len(platforms))
	for i, platform := range platforms {
		id, err := gonanoid.New()
		if err != nil {
			return nil, fmt.Errorf("generate submission id: %w", err)
		}
		submissions = append(submissions, &models.Submission{
			ID:        id,
			BatchID:   batchID,
			Platform:  platform,
			Text:      text,
			PublishAt: decision.OptimalTimeSlot.Add(time.Duration(i) * s.opts.PlatformOffset),
			Timezone:  tz,
			Status:    models.SubmissionStatusQueued,
		})
	}

	if err := s.saveSubmissions(ctx, submissions); err != nil {
		return nil, err
	}

	result := &transfer.ScheduleResult{
		BatchID:     batchID,
		Decision:    *decision,
		Text:        text,
		Submissions: make([]transfer.ScheduledSubmission, 0, len(submissions)),
	}
	for _, sub := range submissions {
		result.Submissions = append(result.Submissions, transfer.ScheduledSubmission{
			ID:        sub.ID,
			Platform:  sub.Platform,
			PublishAt: sub.PublishAt,
		})
	}

	slog.Info("topic scheduled", "batch_id", batchID, "date", decision.Date, "platforms", len(platforms))
	return result, nil
}

func (s *scheduleService) saveSubmissions(ctx context.Context, submissions []*models.Submission) (err error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	for _, sub := range submissions {
		if err = s.sr.Create(ctx, tx, sub); err != nil {
			return fmt.Errorf("error saving submission for %s: %w", sub.Platform, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *scheduleService) buildText(ctx context.Context, req *transfer.ScheduleRequest) string {
	text := strings.TrimSpace(req.Text)
	if req.VideoID == "" {
		return text
	}

	if text == "" && s.videos != nil {
		info, err := s.videos.VideoInfo(ctx, req.VideoID)
		if err != nil {
			slog.Warn("video lookup failed, using caller text", "video_id", req.VideoID, "error", err)
		} else {
			text = strings.TrimSpace(info.Title)
			if desc := firstParagraph(info.Description); desc != "" {
				text += "\n\n" + desc
			}
		}
	}

	link := VideoURL(req.VideoID)
	if strings.Contains(text, link) {
		return text
	}
	if text == "" {
		return link
	}
	return text + "\n\n" + link
}

func (s *scheduleService) ListSubmissions(ctx context.Context, limit int) ([]*models.Submission, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	subs, err := s.sr.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing submissions: %w", err)
	}
	return subs, nil
}

func normalizePlatforms(in []string) []string {
	var out []string
	for _, p := range in {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || containsString(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func firstParagraph(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "\n\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
