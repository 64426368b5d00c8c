package models

import "time"

type Submission struct {
	ID           string    `db:"id" json:"id"`
	BatchID      string    `db:"batch_id" json:"batch_id"`
	Platform     string    `db:"platform" json:"platform"`
	Text         string    `db:"text" json:"text"`
	PublishAt    time.Time `db:"publish_at" json:"publish_at"`
	Timezone     string    `db:"timezone" json:"timezone"`
	Status       string    `db:"status" json:"status"` // queued, submitted, failed
	ExternalID   string    `db:"external_id" json:"external_id"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

const (
	SubmissionStatusQueued    = "queued"
	SubmissionStatusSubmitted = "submitted"
	SubmissionStatusFailed    = "failed"
)
