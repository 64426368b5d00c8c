package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChunkFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_calendar_chunk_fetches_total",
			Help: "Calendar chunk requests by outcome",
		},
		[]string{"outcome"},
	)

	CalendarFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cascade_calendar_fetch_duration_seconds",
			Help:    "Time spent reading a date range from the posting service",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
	)

	Decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_decisions_total",
			Help: "Cascade decisions by selection strategy",
		},
		[]string{"strategy"},
	)

	DecisionWindowSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cascade_decision_window_days",
			Help: "Window size used by the most recent decision",
		},
	)

	AnalysisTotalPosts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cascade_analysis_scheduled_posts",
			Help: "Scheduled posts counted by the most recent calendar analysis",
		},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_submissions_total",
			Help: "Post submissions to the posting service by outcome",
		},
		[]string{"platform", "outcome"},
	)
)
