package dedup

import (
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBackend(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	defer client.Close()

	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	backend := NewRedisBackend(client, "pricewatch:test:seen")
	require.NoError(t, backend.Clear(ctx))
	defer backend.Clear(ctx)

	store := NewStore(ctx, backend)
	assert.Equal(t, 0, store.Len())

	keys := make([]string, 0, 1200)
	for i := 0; i < 1200; i++ {
		keys = append(keys, fmt.Sprintf("https://shop.example.com/p/%d_1.00", i))
	}
	for _, k := range keys {
		store.Record(k)
	}
	require.NoError(t, store.Flush(ctx))

	reloaded := NewStore(ctx, backend)
	assert.ElementsMatch(t, keys, reloaded.Keys())
}
