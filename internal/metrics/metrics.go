package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// aiRequests counts SendChat/DescribeImage attempts per model.
	// Labels: kind (chat, vision), model, status (ok, timeout, rate_limited, upstream, malformed, invalid_image, canceled, error)
	aiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "essaycoach",
		Subsystem: "ai",
		Name:      "requests_total",
		Help:      "AI collaborator attempts by model and outcome",
	}, []string{"kind", "model", "status"})

	// aiLatency measures single-attempt latency.
	// Labels: kind, model
	aiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "essaycoach",
		Subsystem: "ai",
		Name:      "latency_seconds",
		Help:      "AI collaborator attempt latency in seconds",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"kind", "model"})

	// aiFallbacks counts moves from one model to the next in the fallback list.
	// Labels: from
	aiFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "essaycoach",
		Subsystem: "ai",
		Name:      "fallbacks_total",
		Help:      "AI model fallbacks",
	}, []string{"from"})

	// guardRejections counts requests refused by the per-client guard.
	// Labels: reason (in_flight, interval)
	guardRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "essaycoach",
		Subsystem: "ai",
		Name:      "guard_rejections_total",
		Help:      "AI requests refused by the per-client guard",
	}, []string{"reason"})

	// visionQueueDepth is the number of vision requests waiting or running.
	visionQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "essaycoach",
		Subsystem: "vision",
		Name:      "queue_depth",
		Help:      "Vision requests queued or in progress",
	})

	// httpPanics counts handler panics caught by the recovery middleware.
	// Labels: method
	httpPanics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "essaycoach",
		Subsystem: "http",
		Name:      "panics_total",
		Help:      "Handler panics recovered",
	}, []string{"method"})

	// versionMutations counts version forest changes.
	// Labels: op (add, delete, feedback, switch)
	versionMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "essaycoach",
		Subsystem: "history",
		Name:      "version_mutations_total",
		Help:      "Essay version forest mutations",
	}, []string{"op"})

	// practices counts recorded tool practices.
	// Labels: tool, mastered (true, false)
	practices = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "essaycoach",
		Subsystem: "progress",
		Name:      "practices_total",
		Help:      "Writing tool practices recorded",
	}, []string{"tool", "mastered"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAI records one AI attempt.
func ObserveAI(kind, model, status string, elapsed time.Duration) {
	aiRequests.WithLabelValues(kind, model, status).Inc()
	aiLatency.WithLabelValues(kind, model).Observe(elapsed.Seconds())
}

// RecordFallback records giving up on a model.
func RecordFallback(from string) {
	aiFallbacks.WithLabelValues(from).Inc()
}

// RecordGuardRejection records a request refused before reaching a provider.
func RecordGuardRejection(reason string) {
	guardRejections.WithLabelValues(reason).Inc()
}

// VisionQueued adjusts the vision queue gauge by delta.
func VisionQueued(delta int) {
	visionQueueDepth.Add(float64(delta))
}

// RecordPanic records a recovered handler panic.
func RecordPanic(method string) {
	httpPanics.WithLabelValues(method).Inc()
}

// RecordVersionMutation records a change to an essay's version forest.
func RecordVersionMutation(op string) {
	versionMutations.WithLabelValues(op).Inc()
}

// RecordPractice records a tool practice.
func RecordPractice(toolID string, mastered bool) {
	label := "false"
	if mastered {
		label = "true"
	}
	practices.WithLabelValues(toolID, label).Inc()
}
