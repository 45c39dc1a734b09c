package notifier

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "sjsage522/pricewatcher/pkg/errors"
)

// StreamField holds the base64 encoded alert text in each stream entry
const StreamField = "b64_alert"

// RedisStreamNotifier appends alerts to a Redis stream for other consumers
type RedisStreamNotifier struct {
	client    *redis.Client
	stream    string
	maxLength int64
}

// NewRedisStreamNotifier creates a notifier on an existing client. The
// stream is trimmed to roughly maxLength entries on every append.
func NewRedisStreamNotifier(client *redis.Client, stream string, maxLength int) *RedisStreamNotifier {
	return &RedisStreamNotifier{
		client:    client,
		stream:    stream,
		maxLength: int64(maxLength),
	}
}

// Notify appends text to the stream
func (r *RedisStreamNotifier) Notify(ctx context.Context, text string) error {
	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]interface{}{
			"id":        uuid.NewString(),
			"sent_at":   time.Now().UTC().Format(time.RFC3339),
			StreamField: base64.StdEncoding.EncodeToString([]byte(text)),
		},
	}
	if r.maxLength > 0 {
		args.MaxLen = r.maxLength
		args.Approx = true
	}

	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return apperrors.NewNotify("redis:"+r.stream, "failed to append alert", err)
	}
	return nil
}

// Close is a no-op; the client is owned by the caller
func (r *RedisStreamNotifier) Close() error {
	return nil
}
