package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PipelineRequestsTotal counts invocations by entry point and final label class.
	// Labels: entry (audio or the text classifier name), result (ok/unknown/invalid)
	PipelineRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mood_pipeline_requests_total",
			Help: "Total number of pipeline invocations by entry point and result",
		},
		[]string{"entry", "result"},
	)

	// StageFailuresTotal counts stage faults that were reduced to Unknown.
	// Labels: stage (ingress/transcode/transcription/classification), kind (TRANSCODE_ERROR/...)
	StageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mood_stage_failures_total",
			Help: "Total number of pipeline stage failures by stage and error kind",
		},
		[]string{"stage", "kind"},
	)

	// StageDuration observes per-stage latency in seconds; stage "total" is the
	// whole audio invocation.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mood_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	CleanupFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mood_cleanup_failures_total",
			Help: "Temporary files that could not be removed",
		},
	)

	// ModelLoaded is 1 once the shared recognizer model is resident.
	ModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mood_recognizer_model_loaded",
			Help: "Recognizer model residency (0=not loaded, 1=loaded)",
		},
	)
)

func RecordRequest(entry, result string) {
	PipelineRequestsTotal.WithLabelValues(entry, result).Inc()
}

func RecordStageFailure(stage, kind string) {
	StageFailuresTotal.WithLabelValues(stage, kind).Inc()
}

func RecordDuration(stage string, seconds float64) {
	StageDuration.WithLabelValues(stage).Observe(seconds)
}

func RecordCleanupFailure() {
	CleanupFailuresTotal.Inc()
}

func SetModelLoaded(loaded bool) {
	if loaded {
		ModelLoaded.Set(1)
	} else {
		ModelLoaded.Set(0)
	}
}
