package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/cascade-scheduler/internal/models"
)

type SubmissionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, s *models.Submission) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Submission, error)
	ListStaleQueued(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Submission, error)
	UpdateStatus(ctx context.Context, id, status, externalID, errorMessage string) error
}

type submissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

const submissionColumns = `id, batch_id, platform, text, publish_at, timezone, status, external_id, error_message, created_at, updated_at`

func (r *submissionRepository) Create(ctx context.Context, tx *sql.Tx, s *models.Submission) error {
	query := `
		INSERT INTO submissions (id, batch_id, platform, text, publish_at, timezone, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, s.ID, s.BatchID, s.Platform, s.Text, s.PublishAt, s.Timezone, s.Status)
	} else {
		_, err = r.db.ExecContext(ctx, query, s.ID, s.BatchID, s.Platform, s.Text, s.PublishAt, s.Timezone, s.Status)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	s, err := scanSubmission(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return s, nil
}

func (r *submissionRepository) ListRecent(ctx context.Context, limit int) ([]*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

// ListStaleQueued returns queued submissions created before createdBefore,
// oldest first.
func (r *submissionRepository) ListStaleQueued(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE status = $1 AND created_at < $2 ORDER BY created_at ASC LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, models.SubmissionStatusQueued, createdBefore, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

func (r *submissionRepository) UpdateStatus(ctx context.Context, id, status, externalID, errorMessage string) error {
	query := `
		UPDATE submissions
		SET status = $1,
			external_id = $2,
			error_message = $3,
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, status, externalID, errorMessage, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*models.Submission, error) {
	var s models.Submission
	err := row.Scan(&s.ID, &s.BatchID, &s.Platform, &s.Text, &s.PublishAt, &s.Timezone, &s.Status, &s.ExternalID, &s.ErrorMessage, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSubmissions(rows *sql.Rows) ([]*models.Submission, error) {
	var subs []*models.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return subs, nil
}
