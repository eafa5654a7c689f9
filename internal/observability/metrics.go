package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Visitor session metrics
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visitor_sessions_created_total",
			Help: "Number of new visitor sessions created",
		},
	)

	SessionsResumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visitor_sessions_resumed_total",
			Help: "Number of requests that refreshed an existing live session",
		},
	)

	SessionsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visitor_sessions_completed_total",
			Help: "Number of sessions marked as having finished the visit",
		},
	)

	// Engagement tracking metrics
	EventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_events_recorded_total",
			Help: "Interaction events appended to the event log, by type",
		},
		[]string{"event_type"},
	)

	AnswersSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "survey_answers_saved_total",
			Help: "Questionnaire answers written (inserts and upserts)",
		},
	)

	CSRFFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csrf_validation_failures_total",
			Help: "Rejected state-changing requests, by failure reason",
		},
		[]string{"reason"},
	)

	DashboardDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dashboard_aggregation_duration_seconds",
			Help:    "Time spent assembling the full analytics dashboard",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		},
		[]string{"operation", "table"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_in_use",
			Help: "Number of database connections currently in use",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)
