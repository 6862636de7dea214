package history

import (
	"context"
	"testing"
	"time"

	"github.com/ricesearch/evalkit/callback"
	"github.com/ricesearch/evalkit/internal/bus"
)

func TestMonitor_Evaluate(t *testing.T) {
	rec := NewRecorder(nil, nil, nil)
	mon, err := NewMonitor(rec, "run", "valid", 0, callback.AUC, callback.RMSE)
	if err != nil {
		t.Fatalf("NewMonitor() error = %v", err)
	}

	labels := callback.Labels{0, 0, 1, 1}
	results, stop, err := mon.Evaluate(context.Background(), 0, []float64{0.1, 0.4, 0.35, 0.8}, labels)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if stop {
		t.Error("Evaluate() stop = true with patience 0")
	}
	if len(results) != 2 || results[0].Name != "auc" || results[1].Name != "rmse" {
		t.Fatalf("results = %+v", results)
	}
	if len(rec.Series("run", "valid", "rmse")) != 1 {
		t.Error("every metric should be recorded")
	}
}

func TestMonitor_EarlyStop(t *testing.T) {
	b := bus.NewMemoryBus(nil)
	defer b.Close()

	stops := make(chan bus.Event, 4)
	b.Subscribe(context.Background(), bus.TopicEarlyStop, func(ctx context.Context, e bus.Event) error {
		stops <- e
		return nil
	})

	rec := NewRecorder(nil, b, nil)
	mon, _ := NewMonitor(rec, "run", "valid", 2, callback.AUC)
	labels := callback.Labels{0, 0, 1, 1}

	iterations := [][]float64{
		{0.1, 0.4, 0.35, 0.8}, // 0.75
		{0.1, 0.2, 0.8, 0.9},  // 1.0, best
		{0.1, 0.4, 0.35, 0.8}, // 0.75
		{0.1, 0.4, 0.35, 0.8}, // 0.75, patience exhausted
		{0.1, 0.4, 0.35, 0.8},
	}

	stoppedAt := -1
	for i, preds := range iterations {
		_, stop, err := mon.Evaluate(context.Background(), i, preds, labels)
		if err != nil {
			t.Fatalf("Evaluate(%d) error = %v", i, err)
		}
		if stop && stoppedAt < 0 {
			stoppedAt = i
		}
	}

	if stoppedAt != 3 {
		t.Errorf("stopped at iteration %d, want 3", stoppedAt)
	}

	best, ok := mon.Best()
	if !ok || best.Iteration != 1 {
		t.Errorf("Best() = %+v, want iteration 1", best)
	}

	select {
	case e := <-stops:
		payload, ok := e.Payload.(StopEvent)
		if !ok || payload.Iteration != 3 || payload.Best.Iteration != 1 {
			t.Errorf("stop event payload = %#v", e.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for early stop event")
	}

	// announced only once
	select {
	case e := <-stops:
		t.Errorf("unexpected second stop event %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMonitor_ScoringErrorRecordsNothing(t *testing.T) {
	rec := NewRecorder(nil, nil, nil)
	mon, _ := NewMonitor(rec, "run", "valid", 0, callback.RMSE, callback.AUC)

	// auc rejects non-binary labels
	if _, _, err := mon.Evaluate(context.Background(), 0, []float64{1, 2}, callback.Labels{3, 4}); err == nil {
		t.Fatal("Evaluate() error = nil, want error")
	}
	if len(rec.Series("run", "valid", "rmse")) != 0 {
		t.Error("no metric should be recorded when one fails")
	}
}

func TestNewMonitor_Validation(t *testing.T) {
	if _, err := NewMonitor(nil, "run", "valid", 0, callback.RMSE); err == nil {
		t.Error("NewMonitor() without recorder should fail")
	}
	if _, err := NewMonitor(NewRecorder(nil, nil, nil), "run", "valid", 0); err == nil {
		t.Error("NewMonitor() without metrics should fail")
	}
}
