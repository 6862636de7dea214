// Package history keeps per-iteration evaluation results of training runs.
package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ricesearch/evalkit/callback"
	"github.com/ricesearch/evalkit/internal/config"
)

// Record is one evaluation of one metric at one boosting iteration.
type Record struct {
	Run       string              `json:"run"`
	Dataset   string              `json:"dataset"`
	Iteration int                 `json:"iteration"`
	Result    callback.EvalResult `json:"result"`
	Timestamp time.Time           `json:"timestamp"`
}

// ID identifies the record within its series.
func (r Record) ID() string {
	return fmt.Sprintf("%s:%s:%s:%d", r.Run, r.Dataset, r.Result.Name, r.Iteration)
}

// Storage persists records. Load returns a series ordered by iteration.
type Storage interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, run, dataset, metric string) ([]Record, error)
	DeleteRun(ctx context.Context, run string) error
	Close() error
}

// NewStorage creates the storage backend named in the configuration.
func NewStorage(cfg config.HistoryConfig) (Storage, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory", "":
		return NewMemoryStorage(), nil
	case "redis":
		return NewRedisStorage(cfg.RedisURL, cfg.Prefix, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown history backend: %s", cfg.Backend)
	}
}

type seriesKey struct {
	run, dataset, metric string
}

func keyOf(rec Record) seriesKey {
	return seriesKey{rec.Run, rec.Dataset, rec.Result.Name}
}

// MemoryStorage keeps records in process memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	series map[seriesKey]map[int]Record
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		series: make(map[seriesKey]map[int]Record),
	}
}

// Save stores rec, replacing any record at the same iteration.
func (s *MemoryStorage) Save(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := keyOf(rec)
	if s.series[k] == nil {
		s.series[k] = make(map[int]Record)
	}
	s.series[k][rec.Iteration] = rec
	return nil
}

// Load returns the series ordered by iteration.
func (s *MemoryStorage) Load(ctx context.Context, run, dataset, metric string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byIter := s.series[seriesKey{run, dataset, metric}]
	out := make([]Record, 0, len(byIter))
	for _, rec := range byIter {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Iteration < out[j].Iteration
	})
	return out, nil
}

// DeleteRun drops every series of run.
func (s *MemoryStorage) DeleteRun(ctx context.Context, run string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.series {
		if k.run == run {
			delete(s.series, k)
		}
	}
	return nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}
