package graph

import (
	"sync"

	"codegraph/internal/core/errors"
)

// Store holds completed scan results. Results are immutable once added,
// so the lock only guards the registry itself; any "current scan" notion
// belongs to the caller, which pins whichever result it wants to query.
type Store struct {
	mu      sync.RWMutex
	results map[string]*ScanResult
	order   []string // insertion order, oldest first
}

func NewStore() *Store {
	return &Store{results: make(map[string]*ScanResult)}
}

// Add registers a result. Adding the same ID twice replaces the entry
// but keeps its position.
func (s *Store) Add(result *ScanResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.results[result.ID]; !exists {
		s.order = append(s.order, result.ID)
	}
	s.results[result.ID] = result
}

func (s *Store) Get(id string) (*ScanResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[id]
	if !ok {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotFound, "unknown scan result"), errors.CtxQuery, id)
	}
	return result, nil
}

// Latest returns the most recently added result, or nil when empty.
func (s *Store) Latest() *ScanResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return nil
	}
	return s.results[s.order[len(s.order)-1]]
}

// List returns summaries of all stored results, oldest first.
func (s *Store) List() []*ScanResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*ScanResult, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.results[id])
	}
	return out
}

