package service

import (
	"fmt"
	"time"

	"github.com/maheshrc27/cascade-scheduler/internal/models"
)

type SlotTime struct {
	Hour   int
	Minute int
}

func (s SlotTime) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

func (s SlotTime) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), s.Hour, s.Minute, 0, 0, day.Location())
}

// DailySlots are the fixed posting times, in daily order.
var DailySlots = []SlotTime{
	{Hour: 9, Minute: 0},
	{Hour: 12, Minute: 30},
	{Hour: 15, Minute: 15},
	{Hour: 17, Minute: 45},
	{Hour: 19, Minute: 30},
}

const (
	MinLeadTime  = time.Hour
	TopicSpacing = 2 * time.Hour
)

// SlotAllocator picks a daily slot that is far enough in the future and far
// enough from the topics already on the day.
type SlotAllocator struct {
	Location *time.Location
	Slots    []SlotTime
	Lead     time.Duration
	Spacing  time.Duration
}

func NewSlotAllocator(loc *time.Location) *SlotAllocator {
	return &SlotAllocator{
		Location: loc,
		Slots:    DailySlots,
		Lead:     MinLeadTime,
		Spacing:  TopicSpacing,
	}
}

// Allocate returns the chosen instant for a new topic on day. When every slot
// on day has already passed, the next day's first slot is used.
func (a *SlotAllocator) Allocate(now, day time.Time, existing []models.TopicGroup) (time.Time, models.ConflictAnalysis) {
	day = StartOfDay(day, a.Location)
	minFuture := now.Add(a.Lead)

	analysis := models.ConflictAnalysis{
		ExistingTimes: make([]string, 0, len(existing)),
		SlotIndex:     -1,
	}
	for _, g := range existing {
		analysis.ExistingTimes = append(analysis.ExistingTimes, clockTime(g.PostTime.In(a.Location)))
	}

	best, bestConflicts := -1, 0
	for i, slot := range a.Slots {
		at := slot.On(day)
		if at.Before(minFuture) {
			continue
		}

		conflicts := a.conflicts(at, existing)
		if conflicts == 0 {
			analysis.SlotIndex = i
			analysis.Slot = slot.String()
			analysis.Reason = fmt.Sprintf("no conflicts within %s of %s", humanDuration(a.Spacing), slot)
			return at, analysis
		}
		if best == -1 || conflicts < bestConflicts {
			best, bestConflicts = i, conflicts
		}
	}

	if best != -1 {
		slot := a.Slots[best]
		analysis.SlotIndex = best
		analysis.Slot = slot.String()
		analysis.Conflicts = bestConflicts
		analysis.Reason = fmt.Sprintf("every future slot conflicts; %s has the fewest conflicts (%d)", slot, bestConflicts)
		return slot.On(day), analysis
	}

	// Every slot on day is in the past: roll forward to the first slot of the
	// next day that clears the lead time.
	next := day
	for {
		next = AddDays(next, 1)
		if at := a.Slots[0].On(next); !at.Before(minFuture) {
			analysis.SlotIndex = 0
			analysis.Slot = a.Slots[0].String()
			analysis.RolledOver = true
			analysis.Reason = fmt.Sprintf("all slots on %s have passed; rolled to %s %s", FormatDate(day), FormatDate(next), a.Slots[0])
			return at, analysis
		}
	}
}

func (a *SlotAllocator) conflicts(at time.Time, existing []models.TopicGroup) int {
	n := 0
	for _, g := range existing {
		d := at.Sub(g.PostTime)
		if d < 0 {
			d = -d
		}
		if d < a.Spacing {
			n++
		}
	}
	return n
}

func humanDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return d.String()
}
