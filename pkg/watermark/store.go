// Package watermark persists the extraction watermark: the start time of the
// last run whose extractions all succeeded. It is the exclusive lower bound
// of the next extraction window.
package watermark

import (
	"context"
	"sync"
	"time"
)

const (
	BackendDatabase = "database"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

type Store interface {
	// Load returns nil when no run has completed yet.
	Load(ctx context.Context) (*time.Time, error)
	// Save never moves the watermark backwards.
	Save(ctx context.Context, wm time.Time) error
	Name() string
}

// MemoryStore keeps the watermark for the life of the process.
type MemoryStore struct {
	mu sync.Mutex
	wm *time.Time
}

// NewMemoryStore starts at initial, nil meaning no watermark yet.
func NewMemoryStore(initial *time.Time) *MemoryStore {
	s := &MemoryStore{}
	if initial != nil {
		t := initial.UTC()
		s.wm = &t
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wm == nil {
		return nil, nil
	}
	t := *s.wm
	return &t, nil
}

func (s *MemoryStore) Save(_ context.Context, wm time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wm = wm.UTC()
	if s.wm != nil && !wm.After(*s.wm) {
		return nil
	}
	s.wm = &wm
	return nil
}

func (s *MemoryStore) Name() string {
	return BackendMemory
}
