package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	analysisRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vetted",
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Analysis pipeline runs by outcome",
		},
		[]string{"status"},
	)

	analysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vetted",
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analysis pipeline duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 180, 300, 420},
		},
	)

	chatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vetted",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns by response mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	remoteCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vetted",
			Subsystem: "assistant",
			Name:      "calls_total",
			Help:      "Calls to the remote assistant API by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	queueJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vetted",
			Subsystem: "queue",
			Name:      "jobs_total",
			Help:      "Queued analysis jobs by outcome",
		},
		[]string{"outcome"},
	)
)

// IncAnalysisStarted increments the started counter.
func IncAnalysisStarted() {
	analysisRuns.WithLabelValues("started").Inc()
}

// IncAnalysisCompleted increments the completed counter.
func IncAnalysisCompleted() {
	analysisRuns.WithLabelValues("completed").Inc()
}

// IncAnalysisFailed increments the failed counter.
func IncAnalysisFailed() {
	analysisRuns.WithLabelValues("failed").Inc()
}

// ObserveAnalysisDuration records an analysis duration.
func ObserveAnalysisDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	analysisDuration.Observe(d.Seconds())
}

// IncChatTurn counts a chat turn for the given mode (blocking|stream).
func IncChatTurn(mode, outcome string) {
	chatTurns.WithLabelValues(mode, outcome).Inc()
}

// IncRemoteCall counts a call to the assistant API.
func IncRemoteCall(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	remoteCalls.WithLabelValues(op, outcome).Inc()
}

// IncQueueJob counts a queue job outcome (received, completed, failed, dropped).
func IncQueueJob(outcome string) {
	queueJobs.WithLabelValues(outcome).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
