package models

import "time"

type DataSource string

const (
	SourceLive     DataSource = "live"
	SourcePartial  DataSource = "partial"
	SourceFallback DataSource = "fallback"
)

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type TimeSlotHistogram struct {
	Morning   int `json:"morning"`
	Afternoon int `json:"afternoon"`
	Evening   int `json:"evening"`
}

// OptimalTime is a display-only estimate. The cascade decision is what the
// scheduler actually uses.
type OptimalTime struct {
	Time          time.Time `json:"time"`
	Reason        string    `json:"reason"`
	Authoritative bool      `json:"authoritative"`
}

type CalendarAnalysis struct {
	TotalScheduled    int               `json:"total_scheduled"`
	DateRange         DateRange         `json:"date_range"`
	PlatformBreakdown map[string]int    `json:"platform_breakdown"`
	DailyBreakdown    map[string]int    `json:"daily_breakdown"`
	TimeSlots         TimeSlotHistogram `json:"time_slots"`
	Recommendations   []string          `json:"recommendations"`
	OptimalTime       OptimalTime       `json:"optimal_time"`
	Source            DataSource        `json:"source"`
	FailedChunks      int               `json:"failed_chunks"`
	GeneratedAt       time.Time         `json:"generated_at"`
}
