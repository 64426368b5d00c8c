package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/cascade-scheduler/internal/metrics"
	"github.com/maheshrc27/cascade-scheduler/internal/models"
)

type CascadeService interface {
	// Decide picks the day and time for the next topic. It always returns a
	// decision, degrading to the nearest open day when the calendar is
	// unreachable.
	Decide(ctx context.Context) *models.CascadeDecision
}

type CascadeOptions struct {
	Location      *time.Location
	CutoffHour    int
	InitialWindow int
	WindowStep    int
	MaxWindow     int
}

func DefaultCascadeOptions(loc *time.Location) CascadeOptions {
	return CascadeOptions{
		Location:      loc,
		CutoffHour:    10,
		InitialWindow: 14,
		WindowStep:    7,
		MaxWindow:     35,
	}
}

type cascadeService struct {
	cal       CalendarService
	allocator *SlotAllocator
	clock     Clock
	opts      CascadeOptions
}

func NewCascadeService(cal CalendarService, clock Clock, opts CascadeOptions) CascadeService {
	if opts.Location == nil {
		opts.Location = cal.Location()
	}
	if opts.InitialWindow <= 0 {
		opts.InitialWindow = 14
	}
	if opts.WindowStep <= 0 {
		opts.WindowStep = 7
	}
	if opts.MaxWindow < opts.InitialWindow {
		opts.MaxWindow = opts.InitialWindow
	}
	return &cascadeService{
		cal:       cal,
		allocator: NewSlotAllocator(opts.Location),
		clock:     clock,
		opts:      opts,
	}
}

// window is the per-day topic view over days [0, size).
type window struct {
	size     int
	startDay int
	today    time.Time
	topics   map[string][]models.TopicGroup
	result   FetchResult
}

func (w *window) date(day int) time.Time {
	return AddDays(w.today, day)
}

func (w *window) count(day int) int {
	return len(w.topics[FormatDate(w.date(day))])
}

func (w *window) firstEmpty() int {
	for d := w.startDay; d < w.size; d++ {
		if w.count(d) == 0 {
			return d
		}
	}
	return -1
}

func (w *window) leastBusy() int {
	best, bestCount := -1, 0
	for d := w.startDay; d < w.size; d++ {
		if c := w.count(d); best == -1 || c < bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

func (s *cascadeService) Decide(ctx context.Context) *models.CascadeDecision {
	now := s.clock.Now().In(s.opts.Location)
	w := s.buildWindow(ctx, now)

	day := w.firstEmpty()
	strategy := models.StrategyEmptyDay
	if day == -1 {
		day = w.leastBusy()
		strategy = models.StrategyLeastBusy
	}
	if day == -1 {
		day = w.startDay
		strategy = models.StrategyDefault
	}

	target := w.date(day)
	existing := w.topics[FormatDate(target)]
	slot, conflicts := s.allocator.Allocate(now, target, existing)

	// A rolled-over slot lands on a later day; decide against that day's topics.
	rolledFrom := ""
	if conflicts.RolledOver {
		rolledFrom = FormatDate(target)
		slotDay := StartOfDay(slot, s.opts.Location)
		for w.date(day).Before(slotDay) {
			day++
		}
		target = w.date(day)
		existing = w.topics[FormatDate(target)]
		slot, conflicts = s.allocator.Allocate(now, target, existing)
		conflicts.RolledOver = true
		conflicts.Reason = fmt.Sprintf("all slots on %s have passed; %s", rolledFrom, conflicts.Reason)
	}

	decision := &models.CascadeDecision{
		Day:                day,
		Date:               FormatDate(target),
		CurrentTopicsOnDay: len(existing),
		NewLevel:           len(existing) + 1,
		Strategy:           strategy,
		WindowSize:         w.size,
		StartDay:           w.startDay,
		OptimalTimeSlot:    slot,
		ConflictAnalysis:   conflicts,
		Source:             w.result.Source(),
	}
	decision.Action = describeAction(decision)
	if rolledFrom != "" {
		decision.Action += fmt.Sprintf("; rolled over from %s", rolledFrom)
	}

	metrics.Decisions.WithLabelValues(string(strategy)).Inc()
	metrics.DecisionWindowSize.Set(float64(w.size))
	slog.Info("cascade decision",
		"day", decision.Day,
		"date", decision.Date,
		"level", decision.NewLevel,
		"strategy", strategy,
		"window", w.size,
		"slot", decision.ConflictAnalysis.Slot,
		"source", decision.Source)

	return decision
}

// buildWindow grows the look-ahead window by WindowStep until it contains an
// empty day at or after startDay, or until MaxWindow is reached. Only the days
// added by each expansion are fetched.
func (s *cascadeService) buildWindow(ctx context.Context, now time.Time) *window {
	today := StartOfDay(now, s.opts.Location)
	w := &window{
		today:  today,
		topics: map[string][]models.TopicGroup{},
	}
	if now.Hour() >= s.opts.CutoffHour {
		w.startDay = 1
	}

	var posts []models.ScheduledPost
	fetchFrom := 0
	size := s.opts.InitialWindow

	for {
		res, err := s.cal.GetScheduledPosts(ctx, FormatDate(AddDays(today, fetchFrom)), FormatDate(AddDays(today, size)))
		if err != nil {
			slog.Warn("calendar range rejected", "error", err)
			res = &FetchResult{}
		}
		posts = append(posts, res.Posts...)
		w.result.Chunks += res.Chunks
		w.result.FailedChunks += res.FailedChunks

		w.size = size
		w.topics = GroupByDay(posts, s.opts.Location)

		if w.firstEmpty() != -1 || size >= s.opts.MaxWindow {
			break
		}

		fetchFrom = size + 1
		size += s.opts.WindowStep
		if size > s.opts.MaxWindow {
			size = s.opts.MaxWindow
		}
	}

	return w
}

func describeAction(d *models.CascadeDecision) string {
	switch d.Strategy {
	case models.StrategyEmptyDay:
		return fmt.Sprintf("fill empty day %d (%s) with topic #%d; %d-day window", d.Day, d.Date, d.NewLevel, d.WindowSize)
	case models.StrategyLeastBusy:
		return fmt.Sprintf("no empty day in %d-day window; add topic #%d to least busy day %d (%s)", d.WindowSize, d.NewLevel, d.Day, d.Date)
	default:
		return fmt.Sprintf("default to day %d (%s) as topic #%d", d.Day, d.Date, d.NewLevel)
	}
}
