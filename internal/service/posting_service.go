package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	config "github.com/maheshrc27/cascade-scheduler/configs"
	"github.com/maheshrc27/cascade-scheduler/internal/models"
	"github.com/maheshrc27/cascade-scheduler/internal/transfer"
)

const postingAuthHeader = "X-Mc-Auth"

type PostingService interface {
	// FetchPosts returns the posts scheduled between start and end (inclusive
	// local dates) from the first candidate endpoint that answers with a list.
	FetchPosts(ctx context.Context, start, end time.Time) ([]models.ScheduledPost, error)
	CreatePost(ctx context.Context, req *transfer.PostRequest) (string, error)
}

type postingService struct {
	cfg      config.Posting
	loc      *time.Location
	client   *http.Client
	executor failsafe.Executor[*http.Response]
}

func NewPostingService(cfg config.Posting, loc *time.Location, client *http.Client) PostingService {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &postingService{
		cfg:      cfg,
		loc:      loc,
		client:   client,
		executor: failsafeExecutor(newSubmitRetryPolicy(200*time.Millisecond, 2*time.Second, 3)),
	}
}

func failsafeExecutor(retry retrypolicy.RetryPolicy[*http.Response]) failsafe.Executor[*http.Response] {
	return failsafe.With(retry)
}

func newSubmitRetryPolicy(baseDelay, maxDelay time.Duration, maxRetries int) retrypolicy.RetryPolicy[*http.Response] {
	return retrypolicy.NewBuilder[*http.Response]().
		WithBackoff(baseDelay, maxDelay).
		WithMaxRetries(maxRetries).
		WithJitterFactor(0.1).
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp == nil || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		}).
		OnRetryScheduled(func(e failsafe.ExecutionScheduledEvent[*http.Response]) {
			discardResponse(e.LastResult())
		}).
		ReturnLastFailure().
		Build()
}

// discardResponse releases a response that is being replaced by a retry.
func discardResponse(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

type candidateEndpoint struct {
	name  string
	build func(start, end time.Time) string
}

func (s *postingService) candidates() []candidateEndpoint {
	base := s.cfg.BaseURL
	withAccount := func(q url.Values) url.Values {
		if s.cfg.UserID != "" {
			q.Set("userId", s.cfg.UserID)
		}
		if s.cfg.BlogID != "" {
			q.Set("blogId", s.cfg.BlogID)
		}
		return q
	}
	dateTimeRange := func(start, end time.Time) url.Values {
		return withAccount(url.Values{
			"start": {FormatDate(start) + "T00:00:00"},
			"end":   {FormatDate(end) + "T23:59:59"},
		})
	}

	return []candidateEndpoint{
		{name: "v2 scheduler", build: func(start, end time.Time) string {
			return base + "/v2/scheduler/posts?" + dateTimeRange(start, end).Encode()
		}},
		{name: "legacy scheduler", build: func(start, end time.Time) string {
			return base + "/scheduler/posts?" + dateTimeRange(start, end).Encode()
		}},
		{name: "v2 scheduler by date", build: func(start, end time.Time) string {
			q := withAccount(url.Values{
				"startDate": {FormatDate(start)},
				"endDate":   {FormatDate(end)},
			})
			return base + "/v2/scheduler/posts?" + q.Encode()
		}},
	}
}

func (s *postingService) FetchPosts(ctx context.Context, start, end time.Time) ([]models.ScheduledPost, error) {
	var errs []error
	for _, c := range s.candidates() {
		posts, err := s.fetchCandidate(ctx, c.build(start, end))
		if err != nil {
			slog.Debug("posting endpoint candidate failed", "endpoint", c.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		out := make([]models.ScheduledPost, 0, len(posts))
		for _, p := range posts {
			out = append(out, ToScheduledPost(p, s.loc))
		}
		return out, nil
	}

	return nil, errors.Join(append([]error{ErrNoCandidateEndpoint}, errs...)...)
}

func (s *postingService) fetchCandidate(ctx context.Context, endpoint string) ([]transfer.PostingPost, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.cfg.UserToken != "" {
		req.Header.Set(postingAuthHeader, s.cfg.UserToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return transfer.DecodePostList(body)
}

func (s *postingService) CreatePost(ctx context.Context, postReq *transfer.PostRequest) (string, error) {
	payload, err := json.Marshal(postReq)
	if err != nil {
		return "", fmt.Errorf("marshal post request: %w", err)
	}

	q := url.Values{}
	if s.cfg.UserID != "" {
		q.Set("userId", s.cfg.UserID)
	}
	if s.cfg.BlogID != "" {
		q.Set("blogId", s.cfg.BlogID)
	}
	endpoint := s.cfg.BaseURL + "/v2/scheduler/posts"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	resp, err := s.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if s.cfg.UserToken != "" {
			req.Header.Set(postingAuthHeader, s.cfg.UserToken)
		}
		return s.client.Do(req)
	})
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return "", fmt.Errorf("submit post: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("posting service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var created transfer.PostResponse
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &created); err != nil {
			slog.Warn("unable to decode post creation response", "error", err)
		}
	}

	return created.ExternalID(), nil
}

var publicationLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ToScheduledPost converts a wire record. An unparseable publication date
// leaves PublicationDateTime zero.
func ToScheduledPost(p transfer.PostingPost, fallback *time.Location) models.ScheduledPost {
	post := models.ScheduledPost{
		ID:         p.IDString(),
		Text:       p.Text,
		CampaignID: p.CampaignID,
		Providers:  make([]models.Provider, 0, len(p.Providers)),
	}

	for _, pr := range p.Providers {
		network := strings.ToLower(strings.TrimSpace(pr.Network))
		if network == "" {
			continue
		}
		post.Providers = append(post.Providers, models.Provider{
			Network: network,
			Status:  providerStatus(pr.Status),
		})
	}

	if t, ok := parsePublicationTime(p.PublicationDate, fallback); ok {
		post.PublicationDateTime = t
	}
	return post
}

func parsePublicationTime(pd transfer.PublicationDate, fallback *time.Location) (time.Time, bool) {
	value := strings.TrimSpace(pd.DateTime)
	if value == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}

	loc := fallback
	if pd.Timezone != "" {
		if l, err := time.LoadLocation(pd.Timezone); err == nil {
			loc = l
		}
	}

	for _, layout := range publicationLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func providerStatus(status string) models.ProviderStatus {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "PUBLISHED":
		return models.ProviderStatusPublished
	case "ERROR", "FAILED":
		return models.ProviderStatusFailed
	default:
		return models.ProviderStatusPending
	}
}
