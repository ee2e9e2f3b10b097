package store

import (
	"context"
	"sync"
	"time"

	"github.com/thinhvd77/Tax/internal/model"
)

// DefaultMemoryCapacity runs kept by a MemoryStore before the oldest are dropped
const DefaultMemoryCapacity = 200

// MemoryStore process-local run history, used when the database is unavailable
type MemoryStore struct {
	runs     map[string]*model.Run
	order    []string // oldest first
	capacity int
	mu       sync.RWMutex
}

// NewMemoryStore creates an empty history holding at most capacity runs
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{
		runs:     make(map[string]*model.Run),
		capacity: capacity,
	}
}

func (s *MemoryStore) CreateRun(_ context.Context, run model.Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = model.RunProcessing
	}
	run.Files = append([]model.FileAssignment(nil), run.Files...)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; !ok {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = &run
	for len(s.order) > s.capacity {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

func (s *MemoryStore) CompleteRun(_ context.Context, id string, stats model.RunStats, files []model.FileAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	now := time.Now().UTC()
	run.Status = model.RunSucceeded
	run.Employees = stats.Employees
	run.NoContract = stats.NoContract
	run.TotalTax = stats.TotalTax
	run.Warnings = stats.Warnings
	run.CompletedAt = &now
	if len(files) > 0 {
		run.Files = append([]model.FileAssignment(nil), files...)
	}
	return nil
}

func (s *MemoryStore) FailRun(_ context.Context, id string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	now := time.Now().UTC()
	run.Status = model.RunFailed
	run.ErrorMessage = message
	run.CompletedAt = &now
	return nil
}

// ListRuns newest first, without file lists, same as the sqlite store
func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Run, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		run := *s.runs[s.order[i]]
		run.Files = nil
		out = append(out, run)
	}
	return out, nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (*model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	cp := *run
	cp.Files = append([]model.FileAssignment(nil), run.Files...)
	return &cp, nil
}
