package service

import (
	"fmt"
	"time"
)

const isoDate = "2006-01-02"

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// AddDays moves a local midnight by n calendar days, staying on midnight
// across DST changes.
func AddDays(day time.Time, n int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day()+n, 0, 0, 0, 0, day.Location())
}

func FormatDate(t time.Time) string {
	return t.Format(isoDate)
}

func ParseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(isoDate, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDateRange, value)
	}
	return t, nil
}

func clockTime(t time.Time) string {
	return t.Format("15:04")
}
