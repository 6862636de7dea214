package history

import (
	"context"
	"testing"
	"time"
)

func TestNewRedisStorage_InvalidURL(t *testing.T) {
	_, err := NewRedisStorage("invalid://url", "", 0)
	if err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestNewRedisStorage_ConnectionFailure(t *testing.T) {
	// Try to connect to non-existent Redis
	_, err := NewRedisStorage("redis://localhost:9999", "", 0)
	if err == nil {
		t.Fatal("expected error for connection failure")
	}
}

func TestRedisStorage_SaveAndLoad(t *testing.T) {
	// Skip if Redis not available
	storage, err := NewRedisStorage("redis://localhost:6379/15", "evalkit:test:", time.Hour)
	if err != nil {
		t.Skip("Redis not available:", err)
	}
	defer storage.Close()

	ctx := context.Background()
	defer storage.DeleteRun(ctx, "redis-run")

	for i, v := range []float64{0.9, 0.6, 0.7} {
		err := storage.Save(ctx, Record{
			Run:       "redis-run",
			Dataset:   "valid",
			Iteration: i,
			Result:    rmse(v),
			Timestamp: time.Now(),
		})
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	// Overwrite iteration 1
	storage.Save(ctx, Record{Run: "redis-run", Dataset: "valid", Iteration: 1, Result: rmse(0.5)})

	loaded, err := storage.Load(ctx, "redis-run", "valid", "rmse")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded) != 3 {
		t.Fatalf("expected 3 records, got %d", len(loaded))
	}
	for i, rec := range loaded {
		if rec.Iteration != i {
			t.Errorf("record %d: iteration = %d, want ordered by iteration", i, rec.Iteration)
		}
	}
	if loaded[1].Result.Value != 0.5 {
		t.Errorf("iteration 1 value = %v, want 0.5 after overwrite", loaded[1].Result.Value)
	}
}

func TestRedisStorage_DeleteRun(t *testing.T) {
	storage, err := NewRedisStorage("redis://localhost:6379/15", "evalkit:test:", time.Hour)
	if err != nil {
		t.Skip("Redis not available:", err)
	}
	defer storage.Close()

	ctx := context.Background()
	storage.Save(ctx, Record{Run: "doomed", Dataset: "valid", Iteration: 0, Result: rmse(1)})
	storage.Save(ctx, Record{Run: "doomed", Dataset: "train", Iteration: 0, Result: gini(0.5)})

	if err := storage.DeleteRun(ctx, "doomed"); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}

	for _, ds := range []string{"valid", "train"} {
		for _, m := range []string{"rmse", "gini"} {
			got, err := storage.Load(ctx, "doomed", ds, m)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("Load(%s, %s) after DeleteRun = %d records", ds, m, len(got))
			}
		}
	}
}

func TestRedisStorage_DeleteRunRejectsPatterns(t *testing.T) {
	storage, err := NewRedisStorage("redis://localhost:6379/15", "evalkit:test:", time.Hour)
	if err != nil {
		t.Skip("Redis not available:", err)
	}
	defer storage.Close()

	if err := storage.DeleteRun(context.Background(), "*"); err == nil {
		t.Error("DeleteRun(*) should be rejected")
	}
}
