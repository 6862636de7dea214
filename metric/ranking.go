package metric

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/ricesearch/evalkit/internal/pkg/errors"
)

// DefaultK is the cutoff used when callers have no preference.
const DefaultK = 5

// AveragePrecisionAtK computes AP@k of a ranked prediction list against the
// set of relevant items.
//
// actual is treated as a set: order is ignored and duplicates collapse.
// predicted is truncated to its first k items; an item repeated in it counts
// as a hit only at its first position. An empty actual set scores 0.
func AveragePrecisionAtK[T comparable](actual, predicted []T, k int) (float64, error) {
	if k < 1 {
		return 0, errors.ValidationError(fmt.Sprintf("apk: k must be positive, got %d", k))
	}
	if len(predicted) > k {
		predicted = predicted[:k]
	}

	relevant := make(map[T]struct{}, len(actual))
	for _, item := range actual {
		relevant[item] = struct{}{}
	}
	if len(relevant) == 0 {
		return 0, nil
	}

	seen := make(map[T]struct{}, len(predicted))
	var score, hits float64
	for i, item := range predicted {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}

		if _, ok := relevant[item]; ok {
			hits++
			score += hits / float64(i+1)
		}
	}

	return score / float64(min(len(relevant), k)), nil
}

// MeanAveragePrecisionAtK averages AveragePrecisionAtK over query pairs.
// actual[i] is the relevant set for the ranked list predicted[i].
func MeanAveragePrecisionAtK[T comparable](actual, predicted [][]T, k int) (float64, error) {
	if len(actual) != len(predicted) {
		return 0, errors.InputShapeError("mapk", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return 0, errors.EmptyInputError("mapk")
	}

	scores := make([]float64, len(actual))
	for i := range actual {
		ap, err := AveragePrecisionAtK(actual[i], predicted[i], k)
		if err != nil {
			return 0, err
		}
		scores[i] = ap
	}

	return stat.Mean(scores, nil), nil
}
