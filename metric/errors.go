package metric

import (
	"github.com/ricesearch/evalkit/internal/pkg/errors"
)

// Sentinels for errors.Is. Returned errors carry the operation and lengths in
// their details.
var (
	ErrInputShape      = errors.New(errors.CodeInputShape, "length mismatch")
	ErrDegenerateInput = errors.New(errors.CodeDegenerateInput, "degenerate input")
	ErrValidation      = errors.New(errors.CodeValidation, "invalid input")
)

// checkPair validates a positionally aligned actual/predicted pair.
func checkPair(op string, actual, predicted []float64) error {
	if len(actual) != len(predicted) {
		return errors.InputShapeError(op, len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return errors.EmptyInputError(op)
	}
	return nil
}
