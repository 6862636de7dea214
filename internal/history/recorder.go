package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ricesearch/evalkit/callback"
	"github.com/ricesearch/evalkit/internal/bus"
	"github.com/ricesearch/evalkit/internal/pkg/errors"
	"github.com/ricesearch/evalkit/internal/pkg/logger"
	"github.com/ricesearch/evalkit/internal/telemetry"
)

// Recorder collects evaluation results per run, dataset and metric and
// answers best-iteration and early-stopping queries.
//
// Persistence and publishing are best effort: a failing sink is logged and
// never surfaces to the training loop.
type Recorder struct {
	mu     sync.RWMutex
	series map[seriesKey][]Record

	storage Storage
	bus     bus.Bus
	log     *logger.Logger
	tel     *telemetry.Telemetry
	now     func() time.Time
}

// NewRecorder creates a recorder. storage and b may be nil.
func NewRecorder(storage Storage, b bus.Bus, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.Discard()
	}
	return &Recorder{
		series:  make(map[seriesKey][]Record),
		storage: storage,
		bus:     b,
		log:     log,
		now:     time.Now,
	}
}

// WithTelemetry counts records, early stops and sink failures in t.
func (r *Recorder) WithTelemetry(t *telemetry.Telemetry) *Recorder {
	r.tel = t
	return r
}

// Record appends result as the evaluation of iteration. Iterations are
// expected in increasing order; a repeated iteration replaces the earlier one.
func (r *Recorder) Record(ctx context.Context, run, dataset string, iteration int, result callback.EvalResult) (Record, error) {
	if err := ValidateName("run", run); err != nil {
		return Record{}, err
	}
	if err := ValidateName("dataset", dataset); err != nil {
		return Record{}, err
	}
	if iteration < 0 {
		return Record{}, errors.ValidationError(fmt.Sprintf("history: negative iteration %d", iteration))
	}

	rec := Record{
		Run:       run,
		Dataset:   dataset,
		Iteration: iteration,
		Result:    result,
		Timestamp: r.now(),
	}

	r.mu.Lock()
	k := keyOf(rec)
	s := r.series[k]
	if n := len(s); n > 0 && s[n-1].Iteration == iteration {
		s[n-1] = rec
	} else {
		r.series[k] = append(s, rec)
	}
	r.mu.Unlock()

	log := r.log.WithRun(run, dataset).WithMetric(result.Name)
	log.Debug("evaluation recorded", "iteration", iteration, "value", result.Value)
	r.tel.RecordSaved(dataset, result.Name)

	if r.storage != nil {
		if err := r.storage.Save(ctx, rec); err != nil {
			log.WithError(err).Warn("failed to persist evaluation")
			r.tel.SinkFailed(telemetry.SinkStorage)
		}
	}

	if r.bus != nil {
		event := bus.Event{
			ID:        rec.ID(),
			Type:      bus.TopicEvalRecorded,
			Source:    "history",
			Timestamp: rec.Timestamp.UnixMilli(),
			Payload:   rec,
		}
		if err := r.bus.Publish(ctx, bus.TopicEvalRecorded, event); err != nil {
			log.WithError(err).Warn("failed to publish evaluation")
			r.tel.SinkFailed(telemetry.SinkBus)
		}
	}

	return rec, nil
}

// Restore replaces the in-memory series with what storage holds, so a
// resumed run continues from its persisted history.
func (r *Recorder) Restore(ctx context.Context, run, dataset, metric string) (int, error) {
	if r.storage == nil {
		return 0, nil
	}

	records, err := r.storage.Load(ctx, run, dataset, metric)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.series[seriesKey{run, dataset, metric}] = records
	r.mu.Unlock()

	return len(records), nil
}

// Series returns a copy of the recorded series.
func (r *Recorder) Series(run, dataset, metric string) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.series[seriesKey{run, dataset, metric}]
	out := make([]Record, len(s))
	copy(out, s)
	return out
}

// Best returns the record with the best value under the metric's direction.
// Ties keep the earliest iteration.
func (r *Recorder) Best(run, dataset, metric string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.series[seriesKey{run, dataset, metric}]
	i := bestIndex(s)
	if i < 0 {
		return Record{}, false
	}
	return s[i], true
}

// ShouldStop reports whether the last patience iterations failed to improve
// on the best one. A patience of 0 disables early stopping.
func (r *Recorder) ShouldStop(run, dataset, metric string, patience int) bool {
	if patience <= 0 {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.series[seriesKey{run, dataset, metric}]
	i := bestIndex(s)
	if i < 0 {
		return false
	}
	return len(s)-1-i >= patience
}

func bestIndex(s []Record) int {
	best := -1
	for i, rec := range s {
		if best < 0 || rec.Result.Better(s[best].Result) {
			best = i
		}
	}
	return best
}
