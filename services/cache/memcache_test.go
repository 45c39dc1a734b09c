package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheService(t *testing.T) {
	mc := NewMemcacheService("localhost:11211", "pricewatch-test:")
	if err := mc.Ping(); err != nil {
		t.Skip("Memcached is not available, skipping test")
	}

	key := RateLimitKey("shop.example.com")

	err := mc.Set(key, []byte("300"), 2*time.Second)
	assert.NoError(t, err)

	value, err := mc.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, "300", string(value))

	assert.NoError(t, mc.Delete(key))

	_, err = mc.Get(key)
	assert.ErrorIs(t, err, ErrMiss)

	// deleting a missing key is not an error
	assert.NoError(t, mc.Delete(key))
}

func TestMemcacheKeySanitized(t *testing.T) {
	mc := NewMemcacheService("localhost:11211", "pw:")

	assert.Equal(t, "pw:ratelimit:shop_example", mc.key("ratelimit:shop example"))
	long := mc.key(strings.Repeat("a", 400))
	assert.Len(t, long, maxKeyLength)
}
