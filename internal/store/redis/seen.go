package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSeenTTL is how long a fingerprint is remembered (24 hours)
const DefaultSeenTTL = 24 * time.Hour

// SeenSet remembers recently submitted fingerprints so every instance can
// skip items another one already handed to the sink.
type SeenSet struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSeenSet creates a seen set; ttl <= 0 uses DefaultSeenTTL.
func NewSeenSet(client *redis.Client, ttl time.Duration) *SeenSet {
	if ttl <= 0 {
		ttl = DefaultSeenTTL
	}
	return &SeenSet{client: client, ttl: ttl}
}

// MarkIfNew records fingerprint and reports whether it was absent.
func (s *SeenSet) MarkIfNew(ctx context.Context, fingerprint string) (bool, error) {
	ok, err := s.client.SetNX(ctx, SeenKey(fingerprint), 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark fingerprint: %w", err)
	}
	return ok, nil
}

// Forget drops fingerprint so the next cycle submits it again.
func (s *SeenSet) Forget(ctx context.Context, fingerprint string) error {
	if err := s.client.Del(ctx, SeenKey(fingerprint)).Err(); err != nil {
		return fmt.Errorf("failed to forget fingerprint: %w", err)
	}
	return nil
}
