package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/cascade-scheduler/internal/models"
	"github.com/maheshrc27/cascade-scheduler/internal/transfer"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func at(loc *time.Location, date string, hour, minute int) time.Time {
	d, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		panic(err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc)
}

func post(id string, when time.Time, networks ...string) models.ScheduledPost {
	p := models.ScheduledPost{ID: id, PublicationDateTime: when}
	for _, n := range networks {
		p.Providers = append(p.Providers, models.Provider{Network: n, Status: models.ProviderStatusPending})
	}
	return p
}

// fakePosting serves posts from memory, filtered by local date.
type fakePosting struct {
	mu      sync.Mutex
	posts   []models.ScheduledPost
	failAll bool
	failOn  map[string]bool // chunk start dates that fail
	calls   [][2]string
	created []string
}

func (f *fakePosting) FetchPosts(ctx context.Context, start, end time.Time) ([]models.ScheduledPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, [2]string{FormatDate(start), FormatDate(end)})
	if f.failAll || f.failOn[FormatDate(start)] {
		return nil, errors.New("upstream unavailable")
	}

	loc := start.Location()
	var out []models.ScheduledPost
	for _, p := range f.posts {
		day := StartOfDay(p.PublicationDateTime, loc)
		if day.Before(start) || day.After(end) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePosting) CreatePost(ctx context.Context, req *transfer.PostRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req.Text)
	return "ext-1", nil
}

type recordingSleeper struct {
	sleeps []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.sleeps = append(r.sleeps, d)
	return nil
}
