package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Sessions created through the API
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quizrunner_sessions_started_total",
			Help: "Total number of quiz sessions created",
		},
	)

	// Live sessions in the registry
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quizrunner_active_sessions_current",
			Help: "Current number of live quiz sessions",
		},
	)

	// Quiz loads by outcome: success, failed, malformed, rejected
	QuizLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizrunner_quiz_loads_total",
			Help: "Total number of quiz loads by outcome",
		},
		[]string{"status"},
	)

	// Finished attempts by submission status: submitted, lost
	AttemptsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizrunner_attempts_finished_total",
			Help: "Total number of finished attempts by submission status",
		},
		[]string{"status"},
	)

	// Individual submission tries, including retries
	SubmitTries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizrunner_submit_tries_total",
			Help: "Total number of result submission requests by outcome",
		},
		[]string{"status"},
	)

	// Wall time of a whole Finish, retries and backoff included
	SubmitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quizrunner_submit_duration_seconds",
			Help:    "Time spent submitting a result, including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// Sessions removed by the idle reaper
	SessionsReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quizrunner_sessions_reaped_total",
			Help: "Total number of idle sessions reaped",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizrunner_http_requests_total",
			Help: "Total number of HTTP requests by method and status code",
		},
		[]string{"method", "code"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}
