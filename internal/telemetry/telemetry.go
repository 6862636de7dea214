// Package telemetry counts evaluations with Prometheus collectors and writes
// them out for the node_exporter textfile collector.
package telemetry

import (
	stderrors "errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ricesearch/evalkit/internal/pkg/errors"
)

// Metric names.
const (
	MetricEvaluationsTotal      = "evalkit_evaluations_total"
	MetricEvaluationErrorsTotal = "evalkit_evaluation_errors_total"
	MetricEvaluationDuration    = "evalkit_evaluation_duration_seconds"
	MetricHistoryRecordsTotal   = "evalkit_history_records_total"
	MetricEarlyStopsTotal       = "evalkit_early_stops_total"
	MetricSinkErrorsTotal       = "evalkit_sink_errors_total"
)

// Sinks reported by SinkFailed.
const (
	SinkStorage = "storage"
	SinkBus     = "bus"
)

// Telemetry holds the collectors of one evalkit process. A nil *Telemetry is
// valid and records nothing.
type Telemetry struct {
	Evaluations *prometheus.CounterVec
	EvalErrors  *prometheus.CounterVec
	EvalLatency *prometheus.HistogramVec
	Records     *prometheus.CounterVec
	EarlyStops  *prometheus.CounterVec
	SinkErrors  *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the collectors and registers them on a private registry.
func New() *Telemetry {
	t := &Telemetry{
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricEvaluationsTotal,
				Help: "Total number of metric evaluations by metric",
			},
			[]string{"metric"},
		),
		EvalErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricEvaluationErrorsTotal,
				Help: "Total number of failed metric evaluations by metric and error code",
			},
			[]string{"metric", "code"},
		),
		EvalLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricEvaluationDuration,
				Help:    "Histogram of metric evaluation duration in seconds",
				Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"metric"},
		),
		Records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHistoryRecordsTotal,
				Help: "Total number of evaluation results recorded by dataset and metric",
			},
			[]string{"dataset", "metric"},
		),
		EarlyStops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricEarlyStopsTotal,
				Help: "Total number of early stopping decisions by dataset and metric",
			},
			[]string{"dataset", "metric"},
		),
		SinkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSinkErrorsTotal,
				Help: "Total number of failed history persists and event publishes by sink",
			},
			[]string{"sink"},
		),
		registry: prometheus.NewRegistry(),
	}

	t.registry.MustRegister(t.Collectors()...)
	return t
}

// Collectors returns all collectors, for registering on another registry.
func (t *Telemetry) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		t.Evaluations,
		t.EvalErrors,
		t.EvalLatency,
		t.Records,
		t.EarlyStops,
		t.SinkErrors,
	}
}

// ObserveEval counts one evaluation of metric that took d.
func (t *Telemetry) ObserveEval(metric string, d time.Duration, err error) {
	if t == nil {
		return
	}
	t.Evaluations.WithLabelValues(metric).Inc()
	t.EvalLatency.WithLabelValues(metric).Observe(d.Seconds())
	if err != nil {
		t.EvalErrors.WithLabelValues(metric, codeOf(err)).Inc()
	}
}

// RecordSaved counts one recorded result.
func (t *Telemetry) RecordSaved(dataset, metric string) {
	if t == nil {
		return
	}
	t.Records.WithLabelValues(dataset, metric).Inc()
}

// EarlyStop counts one early stopping decision.
func (t *Telemetry) EarlyStop(dataset, metric string) {
	if t == nil {
		return
	}
	t.EarlyStops.WithLabelValues(dataset, metric).Inc()
}

// SinkFailed counts a failed write to SinkStorage or SinkBus.
func (t *Telemetry) SinkFailed(sink string) {
	if t == nil {
		return
	}
	t.SinkErrors.WithLabelValues(sink).Inc()
}

// WriteFile atomically replaces path with the text exposition of every
// collector, the format the node_exporter textfile collector reads.
func (t *Telemetry) WriteFile(path string) error {
	if t == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, t.registry); err != nil {
		return errors.InternalError("writing metrics textfile", err)
	}
	return nil
}

func codeOf(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return errors.CodeInternal
}
