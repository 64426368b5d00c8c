package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/cascade-scheduler/internal/models"
	"github.com/maheshrc27/cascade-scheduler/internal/service"
)

type CalendarDigestJob struct {
	cs        service.CalendarService
	archive   service.ReportArchive
	daysAhead int
	timeout   time.Duration
}

// NewCalendarDigestJob builds the digest job. archive may be nil, in which
// case digests are only logged.
func NewCalendarDigestJob(cs service.CalendarService, archive service.ReportArchive, daysAhead int) *CalendarDigestJob {
	return &CalendarDigestJob{
		cs:        cs,
		archive:   archive,
		daysAhead: daysAhead,
		timeout:   5 * time.Minute,
	}
}

// Run is the cron entry point.
func (c *CalendarDigestJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	c.Digest(ctx)
}

func (c *CalendarDigestJob) Digest(ctx context.Context) *models.CalendarAnalysis {
	analysis := c.cs.AnalyzeCalendarForPlanning(ctx, c.daysAhead)

	slog.Info("calendar digest",
		"start", analysis.DateRange.Start,
		"end", analysis.DateRange.End,
		"total", analysis.TotalScheduled,
		"source", analysis.Source,
		"failed_chunks", analysis.FailedChunks,
		"estimate", analysis.OptimalTime.Time.Format(time.RFC3339))

	if c.archive == nil {
		return analysis
	}

	key, err := c.archive.ArchiveAnalysis(ctx, analysis)
	if err != nil {
		slog.Warn("unable to archive calendar digest", "error", err)
		return analysis
	}
	slog.Info("calendar digest archived", "key", key)
	return analysis
}
