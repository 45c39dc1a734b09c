package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryService is a process-local CacheService. Entries share one TTL fixed
// at construction; the expiration passed to Set is ignored.
type MemoryService struct {
	items *expirable.LRU[string, []byte]
}

// NewMemoryService creates an unbounded in-memory cache whose entries expire
// after ttl. A non-positive ttl never expires.
func NewMemoryService(ttl time.Duration) *MemoryService {
	return &MemoryService{
		items: expirable.NewLRU[string, []byte](0, nil, ttl),
	}
}

// Get retrieves a value if it has not expired
func (m *MemoryService) Get(key string) ([]byte, error) {
	value, ok := m.items.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	return value, nil
}

// Set stores a value
func (m *MemoryService) Set(key string, value []byte, _ time.Duration) error {
	m.items.Add(key, append([]byte(nil), value...))
	return nil
}

// Delete removes a value
func (m *MemoryService) Delete(key string) error {
	m.items.Remove(key)
	return nil
}
