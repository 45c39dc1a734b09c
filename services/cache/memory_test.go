package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryService(t *testing.T) {
	m := NewMemoryService(time.Minute)

	assert.NoError(t, m.Set("k", []byte("v"), time.Minute))

	value, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(value))

	assert.NoError(t, m.Delete("k"))
	_, err = m.Get("k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryServiceExpires(t *testing.T) {
	m := NewMemoryService(20 * time.Millisecond)
	require.NoError(t, m.Set(RateLimitKey("shop.example.com"), []byte("60"), 0))

	_, err := m.Get(RateLimitKey("shop.example.com"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := m.Get(RateLimitKey("shop.example.com"))
		return err == ErrMiss
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryServiceIsUnbounded(t *testing.T) {
	m := NewMemoryService(time.Minute)
	for i := 0; i < 1000; i++ {
		require.NoError(t, m.Set(RateLimitKey(fmt.Sprintf("host-%d", i)), []byte("1"), 0))
	}
	_, err := m.Get(RateLimitKey("host-0"))
	assert.NoError(t, err)
}
