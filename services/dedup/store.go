// Package dedup keeps the set of products that were already alerted.
package dedup

import (
	"context"
	"sort"
	"sync"

	"sjsage522/pricewatcher/logger"
)

// Backend persists the seen set between runs
type Backend interface {
	// Load returns every persisted key; a missing state yields no keys
	Load(ctx context.Context) ([]string, error)
	// Save persists the complete key set
	Save(ctx context.Context, keys []string) error
	// Clear drops the persisted state
	Clear(ctx context.Context) error
	// Name identifies the backend in logs
	Name() string
}

// Store is the synchronized in-memory seen set. It is authoritative for the
// run; the backend is only read at start and written on Flush.
type Store struct {
	mu      sync.RWMutex
	keys    map[string]struct{}
	dirty   bool
	backend Backend
	log     *logger.Logger
}

// NewStore loads the persisted keys from backend. Load failures are logged
// and the store starts empty.
func NewStore(ctx context.Context, backend Backend) *Store {
	s := &Store{
		keys:    make(map[string]struct{}),
		backend: backend,
		log:     logger.ForStore(),
	}
	if backend == nil {
		return s
	}

	keys, err := backend.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("backend", backend.Name()).Msg("Could not load seen keys, starting empty")
		return s
	}
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
	s.log.Info().Str("backend", backend.Name()).Int("keys", len(s.keys)).Msg("Loaded seen keys")
	return s
}

// Seen reports whether key was recorded
func (s *Store) Seen(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok
}

// Record adds key to the set
func (s *Store) Record(key string) {
	s.CheckAndRecord(key)
}

// CheckAndRecord adds key and reports whether it was new. Concurrent callers
// racing on the same key see true exactly once.
func (s *Store) CheckAndRecord(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = struct{}{}
	s.dirty = true
	return true
}

// Len returns the number of recorded keys
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Keys returns the recorded keys in sorted order
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedKeys()
}

// Flush writes the set to the backend if anything changed since the last
// successful flush. On failure the in-memory set is kept as is.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil || !s.dirty {
		return nil
	}

	if err := s.backend.Save(ctx, s.sortedKeys()); err != nil {
		return err
	}
	s.dirty = false
	s.log.Debug().Str("backend", s.backend.Name()).Int("keys", len(s.keys)).Msg("Flushed seen keys")
	return nil
}

// Reset forgets every key, in memory and in the backend
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = make(map[string]struct{})
	s.dirty = false
	if s.backend == nil {
		return nil
	}
	return s.backend.Clear(ctx)
}

func (s *Store) sortedKeys() []string {
	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
