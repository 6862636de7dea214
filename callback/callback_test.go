package callback

import (
	"errors"
	"math"
	"testing"

	apperrors "github.com/ricesearch/evalkit/internal/pkg/errors"
	"github.com/ricesearch/evalkit/metric"
)

// dmatrix stands in for a host framework's training handle.
type dmatrix struct {
	labels []float64
	calls  int
}

func (d *dmatrix) GetLabels() []float64 {
	d.calls++
	return d.labels
}

func TestMetric_LightGBM(t *testing.T) {
	train := &dmatrix{labels: []float64{0, 0, 1, 0, 1}}
	preds := []float64{0.1, 0.2, 0.9, 0.3, 0.8}

	res, err := Gini.LightGBM()(preds, train)
	if err != nil {
		t.Fatalf("LightGBM() error = %v", err)
	}

	if res.Name != "gini" {
		t.Errorf("Name = %s, want gini", res.Name)
	}
	if !res.HigherIsBetter {
		t.Error("HigherIsBetter = false, want true for gini")
	}
	if math.Abs(res.Value-1) > 1e-9 {
		t.Errorf("Value = %v, want 1", res.Value)
	}
	if train.calls != 1 {
		t.Errorf("GetLabels called %d times, want 1", train.calls)
	}
}

func TestMetric_XGBoost(t *testing.T) {
	res, err := RMSLE.XGBoost()([]float64{0, 0}, Labels{0, math.E - 1})
	if err != nil {
		t.Fatalf("XGBoost() error = %v", err)
	}

	if len(res) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(res))
	}
	if res[0].Name != "rmsle" || res[0].HigherIsBetter {
		t.Errorf("result = %+v, want lower-is-better rmsle", res[0])
	}
	if math.Abs(res[0].Value-math.Sqrt(0.5)) > 1e-9 {
		t.Errorf("Value = %v, want %v", res[0].Value, math.Sqrt(0.5))
	}
}

func TestMetric_Evaluate_Errors(t *testing.T) {
	if _, err := RMSE.Evaluate([]float64{1}, nil); !apperrors.IsValidation(err) {
		t.Errorf("nil source error = %v, want validation", err)
	}

	_, err := Gini.Evaluate([]float64{1, 2}, Labels{1, 0, 1})
	if !errors.Is(err, metric.ErrInputShape) {
		t.Errorf("mismatch error = %v, want input shape", err)
	}

	if _, err := AUC.XGBoost()([]float64{0.1, 0.2}, Labels{1, 1}); !errors.Is(err, metric.ErrDegenerateInput) {
		t.Errorf("single class error = %v, want degenerate input", err)
	}
}

func TestCombine(t *testing.T) {
	feval := Combine(RMSE, SMAPE, AUC)

	res, err := feval([]float64{0.2, 0.8, 0.3, 0.6}, Labels{0, 1, 0, 1})
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(res))
	}
	for i, want := range []string{"rmse", "smape", "auc"} {
		if res[i].Name != want {
			t.Errorf("results[%d].Name = %s, want %s", i, res[i].Name, want)
		}
	}

	// auc rejects non-binary labels, which aborts the whole call
	if _, err := Combine(RMSE, AUC)([]float64{1, 2}, Labels{3, 4}); err == nil {
		t.Error("Combine() should fail when any metric fails")
	}
}

func TestEvalResult_Better(t *testing.T) {
	tests := []struct {
		name string
		a, b EvalResult
		want bool
	}{
		{"higher wins", EvalResult{Value: 0.8, HigherIsBetter: true}, EvalResult{Value: 0.7, HigherIsBetter: true}, true},
		{"higher loses", EvalResult{Value: 0.6, HigherIsBetter: true}, EvalResult{Value: 0.7, HigherIsBetter: true}, false},
		{"lower wins", EvalResult{Value: 0.1}, EvalResult{Value: 0.2}, true},
		{"tie is not better", EvalResult{Value: 0.2}, EvalResult{Value: 0.2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Better(tt.b); got != tt.want {
				t.Errorf("Better() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"gini", "GINI", " rmse "} {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q) error = %v", name, err)
		}
	}

	_, err := Lookup("f1")
	if !apperrors.HasCode(err, apperrors.CodeUnknownMetric) {
		t.Errorf("Lookup(f1) error = %v, want unknown metric", err)
	}
}

func TestNames(t *testing.T) {
	want := []string{"auc", "gini", "mape", "rmse", "rmsle", "smape"}
	got := Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestMetric_Evaluate_TypedNilSource(t *testing.T) {
	var handle *dmatrix

	_, err := RMSE.Evaluate([]float64{1, 2}, handle)
	if !apperrors.IsValidation(err) {
		t.Errorf("typed nil source error = %v, want validation", err)
	}

	res, err := RMSE.Evaluate([]float64{1, 2}, &dmatrix{labels: []float64{1, 2}})
	if err != nil || res.Value != 0 {
		t.Errorf("Evaluate() = %+v, %v, want 0", res, err)
	}
}
