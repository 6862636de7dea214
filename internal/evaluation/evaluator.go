// Package evaluation scores datasets with several metrics at once.
package evaluation

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ricesearch/evalkit/callback"
	"github.com/ricesearch/evalkit/internal/pkg/errors"
	"github.com/ricesearch/evalkit/internal/pkg/logger"
	"github.com/ricesearch/evalkit/internal/telemetry"
	"github.com/ricesearch/evalkit/metric"
)

// Evaluator orchestrates dataset evaluation.
type Evaluator struct {
	workers int
	log     *logger.Logger
	tel     *telemetry.Telemetry
}

// NewEvaluator creates a new evaluator running at most workers metrics at once.
func NewEvaluator(workers int, log *logger.Logger) *Evaluator {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Evaluator{workers: workers, log: log}
}

// WithTelemetry counts every metric evaluation in t.
func (e *Evaluator) WithTelemetry(t *telemetry.Telemetry) *Evaluator {
	e.tel = t
	return e
}

// Evaluate scores the dataset with every named metric and, when the dataset
// has queries, with AP@k per query and MAP@k across them.
func (e *Evaluator) Evaluate(ctx context.Context, ds *Dataset, names []string, k int) (*Report, error) {
	if ds == nil {
		return nil, errors.ValidationError("dataset is required")
	}

	report := &Report{}

	if len(names) > 0 {
		results, err := e.Score(ctx, ds.Actual, ds.Predicted, names)
		if err != nil {
			return nil, err
		}
		report.Results = results
	}

	if len(ds.Queries) > 0 {
		queries, err := e.EvaluateQueries(ctx, ds.Queries, k)
		if err != nil {
			return nil, err
		}
		report.Queries = queries
		report.Summary = Summarize(queries, k)
	}

	return report, nil
}

// Score runs the named metrics concurrently. Results keep the order of names;
// the first failure cancels the remaining metrics.
func (e *Evaluator) Score(ctx context.Context, actual, predicted []float64, names []string) ([]callback.EvalResult, error) {
	metrics := make([]callback.Metric, len(names))
	for i, name := range names {
		m, err := callback.Lookup(name)
		if err != nil {
			return nil, err
		}
		metrics[i] = m
	}

	results := make([]callback.EvalResult, len(metrics))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, m := range metrics {
		i, m := i, m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			v, err := m.Score(actual, predicted)
			e.tel.ObserveEval(m.Name, time.Since(start), err)
			if err != nil {
				e.log.WithMetric(m.Name).WithError(err).Debug("metric failed")
				return err
			}
			results[i] = callback.EvalResult{Name: m.Name, Value: v, HigherIsBetter: m.HigherIsBetter}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// EvaluateQueries computes ranking metrics for each query at cutoff k.
func (e *Evaluator) EvaluateQueries(ctx context.Context, queries []Query, k int) ([]*QueryResult, error) {
	results := make([]*QueryResult, 0, len(queries))
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ap, err := metric.AveragePrecisionAtK(q.Relevant, q.Ranked, k)
		if err != nil {
			return nil, err
		}

		relevant := toSet(q.Relevant)
		results = append(results, &QueryResult{
			QueryID:     q.ID,
			AP:          ap,
			Precision:   Precision(relevant, q.Ranked, k),
			Recall:      Recall(relevant, q.Ranked, k),
			MRR:         MRR(relevant, q.Ranked),
			ResultCount: len(q.Ranked),
		})
	}

	e.log.Debug("queries evaluated", "count", len(results), "k", k)
	return results, nil
}

// Summarize aggregates results across queries.
func Summarize(results []*QueryResult, k int) *Summary {
	if len(results) == 0 {
		return &Summary{K: k}
	}

	summary := &Summary{QueryCount: len(results), K: k}
	for _, r := range results {
		summary.MAP += r.AP
		summary.MeanPrecision += r.Precision
		summary.MeanRecall += r.Recall
		summary.MeanMRR += r.MRR
	}

	n := float64(len(results))
	summary.MAP /= n
	summary.MeanPrecision /= n
	summary.MeanRecall /= n
	summary.MeanMRR /= n

	return summary
}
