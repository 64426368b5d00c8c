package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/maheshrc27/cascade-scheduler/internal/metrics"
	"github.com/maheshrc27/cascade-scheduler/internal/models"
)

// MaxRangeDays bounds a single calendar read so one request cannot turn into
// an unbounded run of upstream calls.
const MaxRangeDays = 90

type CalendarService interface {
	GetScheduledPosts(ctx context.Context, startDate, endDate string) (*FetchResult, error)
	AnalyzeCalendarForPlanning(ctx context.Context, daysAhead int) *models.CalendarAnalysis
	Location() *time.Location
}

// FetchResult is the outcome of a chunked calendar read. Failed chunks
// contribute no posts.
type FetchResult struct {
	Posts        []models.ScheduledPost
	Chunks       int
	FailedChunks int
}

func (r *FetchResult) Source() models.DataSource {
	switch {
	case r.Chunks > 0 && r.FailedChunks == r.Chunks:
		return models.SourceFallback
	case r.FailedChunks > 0:
		return models.SourcePartial
	default:
		return models.SourceLive
	}
}

type CalendarOptions struct {
	Location   *time.Location
	ChunkDays  int
	ChunkDelay time.Duration
}

type calendarService struct {
	ps    PostingService
	opts  CalendarOptions
	clock Clock
	sleep Sleeper
}

func NewCalendarService(ps PostingService, opts CalendarOptions, clock Clock, sleep Sleeper) CalendarService {
	if opts.ChunkDays <= 0 {
		opts.ChunkDays = 7
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if sleep == nil {
		sleep = ContextSleep
	}
	return &calendarService{ps: ps, opts: opts, clock: clock, sleep: sleep}
}

func (s *calendarService) Location() *time.Location {
	return s.opts.Location
}

func (s *calendarService) GetScheduledPosts(ctx context.Context, startDate, endDate string) (*FetchResult, error) {
	start, err := ParseDate(startDate, s.opts.Location)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(endDate, s.opts.Location)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidDateRange, startDate, endDate)
	}
	if end.After(AddDays(start, MaxRangeDays)) {
		return nil, fmt.Errorf("%w: %s..%s spans more than %d days", ErrInvalidDateRange, startDate, endDate, MaxRangeDays)
	}

	return s.fetchRange(ctx, start, end), nil
}

// fetchRange walks [start, end] in consecutive chunks, strictly one request
// at a time with a pause between chunks.
func (s *calendarService) fetchRange(ctx context.Context, start, end time.Time) *FetchResult {
	timer := time.Now()
	defer func() {
		metrics.CalendarFetchDuration.Observe(time.Since(timer).Seconds())
	}()

	result := &FetchResult{}
	seen := make(map[string]struct{})

	for chunkStart := start; !chunkStart.After(end); chunkStart = AddDays(chunkStart, s.opts.ChunkDays) {
		chunkEnd := AddDays(chunkStart, s.opts.ChunkDays-1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		if result.Chunks > 0 {
			if err := s.sleep(ctx, s.opts.ChunkDelay); err != nil {
				slog.Warn("calendar fetch interrupted", "chunk_start", FormatDate(chunkStart), "error", err)
				break
			}
		}
		result.Chunks++

		posts, err := s.ps.FetchPosts(ctx, chunkStart, chunkEnd)
		if err != nil {
			result.FailedChunks++
			metrics.ChunkFetches.WithLabelValues("failed").Inc()
			slog.Warn("calendar chunk unavailable, treating as empty",
				"chunk_start", FormatDate(chunkStart),
				"chunk_end", FormatDate(chunkEnd),
				"error", err)
			continue
		}
		metrics.ChunkFetches.WithLabelValues("ok").Inc()

		for _, p := range posts {
			if p.ID != "" {
				if _, dup := seen[p.ID]; dup {
					continue
				}
				seen[p.ID] = struct{}{}
			}
			result.Posts = append(result.Posts, p)
		}
	}

	return result
}

func (s *calendarService) AnalyzeCalendarForPlanning(ctx context.Context, daysAhead int) (analysis *models.CalendarAnalysis) {
	now := s.clock.Now().In(s.opts.Location)
	today := StartOfDay(now, s.opts.Location)
	if daysAhead < 0 {
		daysAhead = 0
	}
	end := AddDays(today, daysAhead)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("calendar analysis failed, returning fallback", "panic", r)
			analysis = FallbackAnalysis(now, today, end)
		}
		metrics.AnalysisTotalPosts.Set(float64(analysis.TotalScheduled))
	}()

	result := s.fetchRange(ctx, today, end)
	if result.Source() == models.SourceFallback {
		slog.Warn("calendar unavailable for the whole range, returning fallback analysis",
			"start", FormatDate(today), "end", FormatDate(end))
		fallback := FallbackAnalysis(now, today, end)
		fallback.FailedChunks = result.FailedChunks
		return fallback
	}

	analysis = BuildAnalysis(result.Posts, today, end, s.opts.Location)
	analysis.Source = result.Source()
	analysis.FailedChunks = result.FailedChunks
	analysis.GeneratedAt = now
	analysis.OptimalTime = EstimateOptimalTime(analysis.DailyBreakdown, today, end)
	if analysis.Source == models.SourcePartial {
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("%d calendar chunk(s) could not be read; counts may be low", result.FailedChunks))
	}
	return analysis
}

// FallbackAnalysis is returned when the calendar cannot be analyzed at all.
func FallbackAnalysis(now, start, end time.Time) *models.CalendarAnalysis {
	tomorrow := AddDays(StartOfDay(now, start.Location()), 1)
	return &models.CalendarAnalysis{
		DateRange:         models.DateRange{Start: FormatDate(start), End: FormatDate(end)},
		PlatformBreakdown: map[string]int{},
		DailyBreakdown:    map[string]int{},
		Recommendations:   []string{"calendar data unavailable; defaulting to tomorrow"},
		OptimalTime: models.OptimalTime{
			Time:   SlotTime{Hour: 10}.On(tomorrow),
			Reason: "fallback: one day ahead",
		},
		Source:      models.SourceFallback,
		GeneratedAt: now,
	}
}

// BuildAnalysis folds posts into per-platform, per-day and time-of-day counts.
func BuildAnalysis(posts []models.ScheduledPost, start, end time.Time, loc *time.Location) *models.CalendarAnalysis {
	a := &models.CalendarAnalysis{
		TotalScheduled:    len(posts),
		DateRange:         models.DateRange{Start: FormatDate(start), End: FormatDate(end)},
		PlatformBreakdown: map[string]int{},
		DailyBreakdown:    map[string]int{},
	}

	for _, p := range posts {
		for _, network := range p.Networks() {
			a.PlatformBreakdown[network]++
		}
		if !p.HasTime() {
			continue
		}
		local := p.PublicationDateTime.In(loc)
		a.DailyBreakdown[FormatDate(local)]++
		switch h := local.Hour(); {
		case h >= 5 && h < 12:
			a.TimeSlots.Morning++
		case h >= 12 && h < 17:
			a.TimeSlots.Afternoon++
		default:
			a.TimeSlots.Evening++
		}
	}

	a.Recommendations = recommendations(a, start, end)
	return a
}

func recommendations(a *models.CalendarAnalysis, start, end time.Time) []string {
	var recs []string

	if a.TotalScheduled == 0 {
		return []string{"no posts scheduled in range; every day is open"}
	}

	if len(a.PlatformBreakdown) > 0 {
		networks := make([]string, 0, len(a.PlatformBreakdown))
		for n := range a.PlatformBreakdown {
			networks = append(networks, n)
		}
		sort.Slice(networks, func(i, j int) bool {
			ci, cj := a.PlatformBreakdown[networks[i]], a.PlatformBreakdown[networks[j]]
			if ci == cj {
				return networks[i] < networks[j]
			}
			return ci > cj
		})
		recs = append(recs, fmt.Sprintf("busiest platform: %s (%d posts)", networks[0], a.PlatformBreakdown[networks[0]]))
		if len(networks) > 1 {
			last := networks[len(networks)-1]
			recs = append(recs, fmt.Sprintf("least used platform: %s (%d posts)", last, a.PlatformBreakdown[last]))
		}
	}

	empty := 0
	for d := start; !d.After(end); d = AddDays(d, 1) {
		if a.DailyBreakdown[FormatDate(d)] == 0 {
			empty++
		}
	}
	if empty > 0 {
		recs = append(recs, fmt.Sprintf("%d day(s) in range have no posts", empty))
	}

	bucket, count := "morning", a.TimeSlots.Morning
	if a.TimeSlots.Afternoon > count {
		bucket, count = "afternoon", a.TimeSlots.Afternoon
	}
	if a.TimeSlots.Evening > count {
		bucket, count = "evening", a.TimeSlots.Evening
	}
	if count > 0 {
		recs = append(recs, fmt.Sprintf("most posts land in the %s (%d)", bucket, count))
	}

	return recs
}

// EstimateOptimalTime picks the quietest day from tomorrow onward at 10:00.
// It is a display estimate only and can disagree with the cascade decision.
func EstimateOptimalTime(daily map[string]int, today, end time.Time) models.OptimalTime {
	best := AddDays(today, 1)
	bestCount := -1
	for d := AddDays(today, 1); !d.After(end); d = AddDays(d, 1) {
		c := daily[FormatDate(d)]
		if bestCount == -1 || c < bestCount {
			best, bestCount = d, c
		}
	}
	if bestCount < 0 {
		bestCount = 0
	}

	return models.OptimalTime{
		Time:   SlotTime{Hour: 10}.On(best),
		Reason: fmt.Sprintf("quietest day in range (%d posts); display estimate, the cascade decision is authoritative", bestCount),
	}
}
