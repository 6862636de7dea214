package metric

import (
	"fmt"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/ricesearch/evalkit/internal/pkg/errors"
)

// AUC returns the area under the ROC curve for binary labels (0 or 1) and
// real-valued scores. Tied scores share one point of the curve.
// A single-class actual is rejected since the false or true positive rate is
// then undefined.
func AUC(actual, predicted []float64) (float64, error) {
	if err := checkPair("auc", actual, predicted); err != nil {
		return 0, err
	}

	classes := make([]bool, len(actual))
	positives := 0
	for i, a := range actual {
		switch a {
		case 1:
			classes[i] = true
			positives++
		case 0:
		default:
			return 0, errors.ValidationError(
				fmt.Sprintf("auc: labels must be 0 or 1, found %g at index %d", a, i),
			)
		}
	}
	if positives == 0 || positives == len(actual) {
		return 0, errors.DegenerateInputError("auc", "only one class present in actual")
	}

	scores := make([]float64, len(predicted))
	copy(scores, predicted)
	stat.SortWeightedLabeled(scores, classes, nil)

	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}
