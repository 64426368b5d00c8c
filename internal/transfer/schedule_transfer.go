package transfer

import (
	"time"

	"github.com/maheshrc27/cascade-scheduler/internal/models"
)

type ScheduleRequest struct {
	Text      string   `json:"text"`
	VideoID   string   `json:"video_id"`
	Platforms []string `json:"platforms"`
}

type ScheduledSubmission struct {
	ID        string    `json:"id"`
	Platform  string    `json:"platform"`
	PublishAt time.Time `json:"publish_at"`
}

type ScheduleResult struct {
	BatchID     string                 `json:"batch_id"`
	Decision    models.CascadeDecision `json:"decision"`
	Text        string                 `json:"text"`
	Submissions []ScheduledSubmission  `json:"submissions"`
}

type VideoInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}
