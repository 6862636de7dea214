// Package callback adapts metric functions to the custom evaluation hooks of
// gradient-boosting training loops.
//
// Host loops hand the callback a prediction slice and a framework-specific
// training handle. The handle only needs to expose its labels, which is all
// LabelSource asks for. LightGBM-style loops expect a single
// (name, value, higher-is-better) tuple per call; XGBoost-style loops expect a
// list of them.
package callback

import (
	"fmt"

	"github.com/ricesearch/evalkit/internal/pkg/errors"
)

// LabelSource is the narrow capability a training handle must offer.
// A nil pointer behind the interface is reported as a validation error when
// GetLabels panics on it.
type LabelSource interface {
	GetLabels() []float64
}

// Labels is a LabelSource over an in-memory label slice.
type Labels []float64

// GetLabels implements LabelSource.
func (l Labels) GetLabels() []float64 {
	return l
}

// EvalResult is the (metric-name, value, higher-is-better) tuple host loops consume.
type EvalResult struct {
	Name           string  `json:"name" yaml:"name"`
	Value          float64 `json:"value" yaml:"value"`
	HigherIsBetter bool    `json:"higher_is_better" yaml:"higher_is_better"`
}

// Better reports whether r improves on other under r's direction.
func (r EvalResult) Better(other EvalResult) bool {
	if r.HigherIsBetter {
		return r.Value > other.Value
	}
	return r.Value < other.Value
}

// ScoreFunc scores predictions against ground truth.
type ScoreFunc func(actual, predicted []float64) (float64, error)

// Metric binds a scoring function to the name and direction reported to the host loop.
type Metric struct {
	Name           string
	Score          ScoreFunc
	HigherIsBetter bool
}

// LightGBMFeval has the shape of a LightGBM custom metric: one result per call.
type LightGBMFeval func(preds []float64, train LabelSource) (EvalResult, error)

// XGBoostFeval has the shape of an XGBoost custom metric: a list of results.
type XGBoostFeval func(preds []float64, dtrain LabelSource) ([]EvalResult, error)

// Evaluate scores preds against the labels of src.
func (m Metric) Evaluate(preds []float64, src LabelSource) (EvalResult, error) {
	labels, err := labelsOf(m.Name, src)
	if err != nil {
		return EvalResult{}, err
	}

	value, err := m.Score(labels, preds)
	if err != nil {
		return EvalResult{}, err
	}

	return EvalResult{
		Name:           m.Name,
		Value:          value,
		HigherIsBetter: m.HigherIsBetter,
	}, nil
}

func labelsOf(name string, src LabelSource) (labels []float64, err error) {
	if src == nil {
		return nil, errors.ValidationError(name + ": nil label source")
	}
	defer func() {
		if r := recover(); r != nil {
			labels = nil
			err = errors.ValidationError(fmt.Sprintf("%s: label source failed: %v", name, r))
		}
	}()
	return src.GetLabels(), nil
}

// LightGBM returns m as a LightGBM-style evaluation callback.
func (m Metric) LightGBM() LightGBMFeval {
	return m.Evaluate
}

// XGBoost returns m as an XGBoost-style evaluation callback.
func (m Metric) XGBoost() XGBoostFeval {
	return func(preds []float64, dtrain LabelSource) ([]EvalResult, error) {
		res, err := m.Evaluate(preds, dtrain)
		if err != nil {
			return nil, err
		}
		return []EvalResult{res}, nil
	}
}

// Combine evaluates several metrics in one XGBoost-style callback, in order.
// The first failing metric aborts the call.
func Combine(metrics ...Metric) XGBoostFeval {
	return func(preds []float64, dtrain LabelSource) ([]EvalResult, error) {
		results := make([]EvalResult, 0, len(metrics))
		for _, m := range metrics {
			res, err := m.Evaluate(preds, dtrain)
			if err != nil {
				return nil, err
			}
			results = append(results, res)
		}
		return results, nil
	}
}
