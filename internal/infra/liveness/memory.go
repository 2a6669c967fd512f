package liveness

import (
	"context"
	"sync"

	"solsign/internal/domain"
)

// MemoryStore keeps camera-check results per identity for the lifetime of
// the process.
type MemoryStore struct {
	mu      sync.Mutex
	results map[string]domain.LivenessResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: map[string]domain.LivenessResult{}}
}

func (s *MemoryStore) Get(_ context.Context, identity string) (*domain.LivenessResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.results[identity]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (s *MemoryStore) Put(_ context.Context, identity string, res domain.LivenessResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[identity] = res
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, identity)
	return nil
}
