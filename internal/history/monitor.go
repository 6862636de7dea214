package history

import (
	"context"

	"github.com/ricesearch/evalkit/callback"
	"github.com/ricesearch/evalkit/internal/bus"
	"github.com/ricesearch/evalkit/internal/pkg/errors"
	"github.com/ricesearch/evalkit/internal/telemetry"
)

// Monitor is an evaluation hook for one run and dataset: each call scores the
// iteration's predictions with every metric, records the results and reports
// whether training should stop. Early stopping follows the first metric.
type Monitor struct {
	rec      *Recorder
	run      string
	dataset  string
	metrics  []callback.Metric
	patience int
	stopped  bool
}

// StopEvent is the payload published on bus.TopicEarlyStop.
type StopEvent struct {
	Run       string `json:"run"`
	Dataset   string `json:"dataset"`
	Metric    string `json:"metric"`
	Iteration int    `json:"iteration"`
	Best      Record `json:"best"`
}

// NewMonitor creates a monitor. patience 0 never stops.
func NewMonitor(rec *Recorder, run, dataset string, patience int, metrics ...callback.Metric) (*Monitor, error) {
	if rec == nil {
		return nil, errors.ValidationError("monitor: recorder is required")
	}
	if len(metrics) == 0 {
		return nil, errors.ValidationError("monitor: at least one metric is required")
	}
	return &Monitor{
		rec:      rec,
		run:      run,
		dataset:  dataset,
		metrics:  metrics,
		patience: patience,
	}, nil
}

// Evaluate scores preds against src for iteration. The returned results keep
// the metric order. A scoring error aborts the call before anything is recorded.
func (m *Monitor) Evaluate(ctx context.Context, iteration int, preds []float64, src callback.LabelSource) ([]callback.EvalResult, bool, error) {
	results, err := callback.Combine(m.metrics...)(preds, src)
	if err != nil {
		return nil, false, err
	}

	for _, res := range results {
		if _, err := m.rec.Record(ctx, m.run, m.dataset, iteration, res); err != nil {
			return nil, false, err
		}
	}

	primary := m.metrics[0].Name
	stop := m.rec.ShouldStop(m.run, m.dataset, primary, m.patience)
	if stop && !m.stopped {
		m.stopped = true
		m.announceStop(ctx, iteration, primary)
	}

	return results, stop, nil
}

// Best returns the best record of the first metric.
func (m *Monitor) Best() (Record, bool) {
	return m.rec.Best(m.run, m.dataset, m.metrics[0].Name)
}

func (m *Monitor) announceStop(ctx context.Context, iteration int, metric string) {
	best, _ := m.rec.Best(m.run, m.dataset, metric)
	log := m.rec.log.WithRun(m.run, m.dataset).WithMetric(metric)
	log.Info("early stopping",
		"iteration", iteration,
		"best_iteration", best.Iteration,
		"best_value", best.Result.Value,
	)
	m.rec.tel.EarlyStop(m.dataset, metric)

	if m.rec.bus == nil {
		return
	}
	event := bus.Event{
		ID:        best.ID() + ":stop",
		Type:      bus.TopicEarlyStop,
		Source:    "history",
		Timestamp: m.rec.now().UnixMilli(),
		Payload: StopEvent{
			Run:       m.run,
			Dataset:   m.dataset,
			Metric:    metric,
			Iteration: iteration,
			Best:      best,
		},
	}
	if err := m.rec.bus.Publish(ctx, bus.TopicEarlyStop, event); err != nil {
		log.WithError(err).Warn("failed to publish early stop")
		m.rec.tel.SinkFailed(telemetry.SinkBus)
	}
}
