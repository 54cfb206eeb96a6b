package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trivia"

var (
	// HTTPRequests counts API responses by route pattern and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP responses served, by route pattern, method and status code.",
	}, []string{"route", "method", "status"})

	// QuizDraws counts POST /quizzes and in-process draws by result.
	QuizDraws = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quiz_draws_total",
		Help:      "Quiz question draws, by result (question, last, exhausted).",
	}, []string{"result"})

	// PlaySessions tracks open WebSocket play sessions.
	PlaySessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "play_sessions_active",
		Help:      "Open WebSocket quiz sessions.",
	})

	// Guesses counts evaluated guesses by correctness.
	Guesses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quiz_guesses_total",
		Help:      "Evaluated quiz guesses, by correctness.",
	}, []string{"correct"})

	// RoundsFinished counts rounds that reached the finished phase.
	RoundsFinished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quiz_rounds_finished_total",
		Help:      "Quiz rounds that reached the final score.",
	})

	// StaleResponses counts source responses dropped after a restart.
	StaleResponses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quiz_stale_responses_total",
		Help:      "Question responses discarded because the session was restarted.",
	})
)

// DrawResult labels a quiz draw for QuizDraws.
func DrawResult(hasQuestion, last bool) string {
	switch {
	case !hasQuestion:
		return "exhausted"
	case last:
		return "last"
	default:
		return "question"
	}
}
