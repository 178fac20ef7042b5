package expectations

import "sync"

// ParameterStore holds extracted validation values keyed by run id and URN.
// Implementations must support concurrent Put from in-flight registrations.
type ParameterStore interface {
	// Put upserts a value; the last write for a (runID, urn) pair wins.
	Put(runID, urn string, value any)

	// Get returns the stored value for a (runID, urn) pair.
	Get(runID, urn string) (any, bool)

	// GetAll returns every parameter stored for a run. The result is a copy
	// and is empty, never nil, for runs with nothing registered.
	GetAll(runID string) map[string]any
}

// InMemoryParameterStore implements ParameterStore with a process-local map.
// Entries accumulate for the life of the process; eviction, if wanted, is the
// caller's concern.
type InMemoryParameterStore struct {
	mu   sync.RWMutex
	runs map[string]map[string]any
}

// NewInMemoryParameterStore creates an empty in-memory parameter store.
func NewInMemoryParameterStore() *InMemoryParameterStore {
	return &InMemoryParameterStore{
		runs: make(map[string]map[string]any),
	}
}

// Put upserts a value for the given run.
func (s *InMemoryParameterStore) Put(runID, urn string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	params, ok := s.runs[runID]
	if !ok {
		params = make(map[string]any)
		s.runs[runID] = params
	}
	params[urn] = value
}

// Get returns the stored value for the given run and URN.
func (s *InMemoryParameterStore) Get(runID, urn string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	params, ok := s.runs[runID]
	if !ok {
		return nil, false
	}
	v, ok := params[urn]
	return v, ok
}

// GetAll returns a copy of every parameter stored for the given run.
func (s *InMemoryParameterStore) GetAll(runID string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.runs[runID]))
	for urn, v := range s.runs[runID] {
		out[urn] = v
	}
	return out
}
