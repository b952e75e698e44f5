package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lease only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lease is a best-effort mutual exclusion shared by every instance
// pointing at the same Redis. It expires on its own if the holder dies.
type Lease struct {
	client *redis.Client
	key    string
}

// NewLease creates a lease stored under LeaseKey(name).
func NewLease(client *redis.Client, name string) *Lease {
	return &Lease{client: client, key: LeaseKey(name)}
}

// Acquire takes the lease for ttl. ok is false when another holder has it.
// The returned release func is safe to call after expiry.
func (l *Lease) Acquire(ctx context.Context, ttl time.Duration) (release func(context.Context) error, ok bool, err error) {
	token, err := newToken()
	if err != nil {
		return nil, false, err
	}

	ok, err = l.client.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lease %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release = func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lease %s: %w", l.key, err)
		}
		return nil
	}
	return release, true, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate lease token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
