package memory

import (
	"context"
	"sync"
)

type idemEntry struct {
	done   bool
	result any
}

// Idempotency is the dev-profile idempotency store.
type Idempotency struct {
	mu   sync.Mutex
	keys map[string]*idemEntry
}

func NewIdempotency() *Idempotency {
	return &Idempotency{keys: make(map[string]*idemEntry)}
}

func (s *Idempotency) Reserve(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = &idemEntry{}
	return true, nil
}

func (s *Idempotency) Complete(_ context.Context, key string, result any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = &idemEntry{done: true, result: result}
	return nil
}

func (s *Idempotency) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

func (s *Idempotency) Lookup(_ context.Context, key string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.keys[key]; ok && entry.done {
		return entry.result, true, nil
	}
	return nil, false, nil
}
