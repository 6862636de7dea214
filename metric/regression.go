package metric

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ricesearch/evalkit/internal/pkg/errors"
)

// MAPE returns the mean absolute percentage error, mean(|a-p| / a).
// A zero actual value makes the ratio undefined and is rejected.
func MAPE(actual, predicted []float64) (float64, error) {
	if err := checkPair("mape", actual, predicted); err != nil {
		return 0, err
	}

	var sum float64
	for i, a := range actual {
		if a == 0 {
			return 0, errors.DegenerateInputError("mape", fmt.Sprintf("zero actual value at index %d", i))
		}
		sum += math.Abs(a-predicted[i]) / a
	}
	return sum / float64(len(actual)), nil
}

// SMAPE returns the symmetric mean absolute percentage error in the
// smoothed form mean(|a-p| / (a+p+1)).
func SMAPE(actual, predicted []float64) (float64, error) {
	if err := checkPair("smape", actual, predicted); err != nil {
		return 0, err
	}

	var sum float64
	for i, a := range actual {
		denom := a + predicted[i] + 1
		if denom == 0 {
			return 0, errors.DegenerateInputError("smape", fmt.Sprintf("zero denominator at index %d", i))
		}
		sum += math.Abs(a-predicted[i]) / denom
	}
	return sum / float64(len(actual)), nil
}

// RMSE returns the root mean squared error.
func RMSE(actual, predicted []float64) (float64, error) {
	if err := checkPair("rmse", actual, predicted); err != nil {
		return 0, err
	}
	return floats.Distance(actual, predicted, 2) / math.Sqrt(float64(len(actual))), nil
}

// RMSLE returns the root mean squared logarithmic error. Negative values on
// either side are floored at zero before taking log1p.
func RMSLE(actual, predicted []float64) (float64, error) {
	if err := checkPair("rmsle", actual, predicted); err != nil {
		return 0, err
	}

	la := make([]float64, len(actual))
	lp := make([]float64, len(predicted))
	for i := range actual {
		la[i] = math.Log1p(math.Max(0, actual[i]))
		lp[i] = math.Log1p(math.Max(0, predicted[i]))
	}
	return floats.Distance(la, lp, 2) / math.Sqrt(float64(len(actual))), nil
}
