// Package metrics provides Prometheus metrics for the gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voxgate"

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	// Streaming session metrics
	SessionsTotal  prometheus.Counter
	SessionsActive prometheus.Gauge

	// Segment metrics
	SegmentsStarted   prometheus.Counter
	SegmentsFinalized prometheus.Counter
	SegmentDuration   prometheus.Histogram

	// Audio metrics
	AudioBytesReceived  prometheus.Counter
	AudioFramesReceived prometheus.Counter
	AudioFramesDropped  prometheus.Counter

	// Intent generation metrics
	IntentRequests     prometheus.Counter
	IntentRepairs      prometheus.Counter
	IntentFallbacks    prometheus.Counter
	IntentFailures     *prometheus.CounterVec
	GenerationDuration prometheus.Histogram

	// Event publishing metrics
	EventsPublished *prometheus.CounterVec
	EventErrors     *prometheus.CounterVec
}

// Default is the process-wide metrics instance.
var Default = New()

// New creates and registers all collectors.
func New() *Metrics {
	return &Metrics{
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of streaming sessions accepted",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently connected streaming sessions",
		}),
		SegmentsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_started_total",
			Help:      "Total number of recording segments started",
		}),
		SegmentsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_finalized_total",
			Help:      "Total number of recording segments finalized",
		}),
		SegmentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segment_finalize_seconds",
			Help:      "Wall time spent finalizing a segment, including decode",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total PCM bytes received over all sessions",
		}),
		AudioFramesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_received_total",
			Help:      "Total binary audio frames received",
		}),
		AudioFramesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_dropped_total",
			Help:      "Binary frames dropped because no segment was active",
		}),
		IntentRequests: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_requests_total",
			Help:      "Total intent generation requests",
		}),
		IntentRepairs: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_repairs_total",
			Help:      "Generation requests that needed the repair round trip",
		}),
		IntentFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_fallbacks_total",
			Help:      "Requests answered with the empty fallback command",
		}),
		IntentFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_failures_total",
			Help:      "Failed intent requests by kind",
		}, []string{"kind"}),
		GenerationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_seconds",
			Help:      "Wall time of the model round trip(s) per request",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Events delivered to Kafka by topic",
		}, []string{"topic"}),
		EventErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_errors_total",
			Help:      "Event publish failures by topic",
		}, []string{"topic"}),
	}
}
