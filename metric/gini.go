package metric

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/ricesearch/evalkit/internal/pkg/errors"
)

// NormalizedGini returns the Gini coefficient of predicted against actual,
// normalized by the coefficient of the perfect ordering. A perfect ranking
// scores 1, a random one about 0, a reversed one -1.
//
// predictedPositiveProb holds one score per item. Classifiers that emit a
// probability per class should pass the positive-class column, see
// PositiveClass.
//
// Constant actual values make the perfect ordering indistinguishable from any
// other and yield an error matching ErrDegenerateInput. NaN scores have no
// rank and are rejected as invalid.
func NormalizedGini(actual, predictedPositiveProb []float64) (float64, error) {
	if err := checkPair("gini", actual, predictedPositiveProb); err != nil {
		return 0, err
	}

	if floats.HasNaN(predictedPositiveProb) {
		return 0, errors.ValidationError("gini: predicted scores contain NaN")
	}
	if floats.Min(actual) == floats.Max(actual) {
		return 0, errors.DegenerateInputError("gini", "constant actual values")
	}

	perfect, err := rawGini(actual, actual)
	if err != nil {
		return 0, err
	}
	if perfect == 0 {
		return 0, errors.DegenerateInputError("gini", "perfect ordering has zero gini")
	}

	g, err := rawGini(actual, predictedPositiveProb)
	if err != nil {
		return 0, err
	}
	return g / perfect, nil
}

// rawGini orders actual by ascending predicted score and compares the area
// under the cumulative curve with the diagonal.
func rawGini(actual, predicted []float64) (float64, error) {
	n := len(actual)

	scores := make([]float64, n)
	copy(scores, predicted)
	order := make([]int, n)
	floats.ArgsortStable(scores, order)

	sorted := make([]float64, n)
	for i, idx := range order {
		sorted[i] = actual[idx]
	}

	total := floats.Sum(sorted)
	if total == 0 {
		return 0, errors.DegenerateInputError("gini", "actual values sum to zero")
	}

	cum := floats.CumSum(make([]float64, n), sorted)
	g := floats.Sum(cum)/total - float64(n+1)/2
	return g / float64(n), nil
}

// PositiveClass extracts the positive-class column (index 1) from per-class
// probability rows, the shape scikit-learn style predict_proba produces.
func PositiveClass(proba [][]float64) ([]float64, error) {
	out := make([]float64, len(proba))
	for i, row := range proba {
		if len(row) < 2 {
			return nil, errors.ValidationError(
				fmt.Sprintf("positive class: row %d has %d columns, need at least 2", i, len(row)),
			)
		}
		out[i] = row[1]
	}
	return out, nil
}
