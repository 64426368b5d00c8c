package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

// Posting holds the credentials for the external posting/calendar service.
type Posting struct {
	BaseURL   string
	UserToken string
	UserID    string
	BlogID    string
}

type Scheduler struct {
	Timezone         string
	CutoffHour       string
	InitialWindow    string
	WindowStep       string
	MaxWindow        string
	ChunkDays        string
	ChunkDelay       string
	PlatformOffset   string
	DefaultPlatforms string
}

type Config struct {
	Port            string
	LogLevel        string
	PostgresURI     string
	RedisURI        string
	SecretKey       string
	CookieName      string
	YoutubeAPIKey   string
	DigestCron      string
	DigestDaysAhead string
	SweepCron       string
	SweepStaleAfter string
	Posting         Posting
	Scheduler       Scheduler
	R2              R2
}

func LoadConfig() *Config {
	return &Config{
		Port:            getEnv("PORT", "3000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		PostgresURI:     getEnv("POSTGRES_URI", ""),
		RedisURI:        getEnv("REDIS_URI", "localhost:6379"),
		SecretKey:       getEnv("SECRET_KEY", ""),
		CookieName:      getEnv("COOKIE_NAME", "session"),
		YoutubeAPIKey:   getEnv("YOUTUBE_API_KEY", ""),
		DigestCron:      getEnv("DIGEST_CRON", "@every 6h"),
		DigestDaysAhead: getEnv("DIGEST_DAYS_AHEAD", "14"),
		SweepCron:       getEnv("SWEEP_CRON", "@every 5m"),
		SweepStaleAfter: getEnv("SWEEP_STALE_AFTER", "10m"),
		Posting: Posting{
			BaseURL:   strings.TrimRight(getEnv("POSTING_BASE_URL", ""), "/"),
			UserToken: getEnv("POSTING_USER_TOKEN", ""),
			UserID:    getEnv("POSTING_USER_ID", ""),
			BlogID:    getEnv("POSTING_BLOG_ID", ""),
		},
		Scheduler: Scheduler{
			Timezone:         getEnv("SCHEDULER_TIMEZONE", "America/New_York"),
			CutoffHour:       getEnv("SCHEDULER_CUTOFF_HOUR", "10"),
			InitialWindow:    getEnv("SCHEDULER_INITIAL_WINDOW", "14"),
			WindowStep:       getEnv("SCHEDULER_WINDOW_STEP", "7"),
			MaxWindow:        getEnv("SCHEDULER_MAX_WINDOW", "35"),
			ChunkDays:        getEnv("SCHEDULER_CHUNK_DAYS", "7"),
			ChunkDelay:       getEnv("SCHEDULER_CHUNK_DELAY", "500ms"),
			PlatformOffset:   getEnv("SCHEDULER_PLATFORM_OFFSET", "5m"),
			DefaultPlatforms: getEnv("SCHEDULER_DEFAULT_PLATFORMS", "facebook,instagram,twitter,linkedin"),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
	}
}

func (c *Config) Validate() error {
	if c.Posting.BaseURL == "" {
		return errors.New("POSTING_BASE_URL is required")
	}
	return nil
}

// R2Enabled reports whether digest archiving has everything it needs.
func (c *Config) R2Enabled() bool {
	return c.R2.AccountID != "" && c.R2.AccessKey != "" && c.R2.SecretKey != "" && c.R2.BucketName != ""
}

// SchedulerOptions is the typed form of the SCHEDULER_* keys.
type SchedulerOptions struct {
	Location         *time.Location
	CutoffHour       int
	InitialWindow    int
	WindowStep       int
	MaxWindow        int
	ChunkDays        int
	ChunkDelay       time.Duration
	PlatformOffset   time.Duration
	DefaultPlatforms []string
}

func (c *Config) SchedulerOptions() SchedulerOptions {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		slog.Warn("unknown scheduler timezone, using America/New_York", "timezone", c.Scheduler.Timezone, "error", err)
		loc, _ = time.LoadLocation("America/New_York")
	}

	return SchedulerOptions{
		Location:         loc,
		CutoffHour:       atoi(c.Scheduler.CutoffHour, 10),
		InitialWindow:    atoi(c.Scheduler.InitialWindow, 14),
		WindowStep:       atoi(c.Scheduler.WindowStep, 7),
		MaxWindow:        atoi(c.Scheduler.MaxWindow, 35),
		ChunkDays:        atoi(c.Scheduler.ChunkDays, 7),
		ChunkDelay:       duration(c.Scheduler.ChunkDelay, 500*time.Millisecond),
		PlatformOffset:   duration(c.Scheduler.PlatformOffset, 5*time.Minute),
		DefaultPlatforms: splitList(c.Scheduler.DefaultPlatforms),
	}
}

func (c *Config) DigestDays() int {
	return atoi(c.DigestDaysAhead, 14)
}

// SweepStale is how long a submission may sit in queued before the sweep
// re-enqueues it.
func (c *Config) SweepStale() time.Duration {
	return duration(c.SweepStaleAfter, 10*time.Minute)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func atoi(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
