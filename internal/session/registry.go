// Package session records which issued access tokens are still live. A
// token is accepted only while its entry exists, so deleting the entry
// revokes it on every instance sharing the store.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vibe-music/vibe-music-server/internal/domain"
)

const keyPrefix = "session:"

// ErrStoreUnavailable wraps any failure talking to the backing store.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Registry is a TTL-based registry of live tokens backed by Redis.
type Registry struct {
	client redis.Cmdable
}

// NewRegistry builds a registry on top of a Redis client.
func NewRegistry(client redis.Cmdable) *Registry {
	return &Registry{client: client}
}

// Put records token as live for ttl. Repeated puts overwrite the entry.
func (r *Registry) Put(ctx context.Context, token string, identity domain.Identity, ttl time.Duration) error {
	if token == "" {
		return errors.New("empty token")
	}
	if ttl <= 0 {
		return fmt.Errorf("invalid session ttl %s", ttl)
	}
	if err := r.client.Set(ctx, key(token), sentinel(identity), ttl).Err(); err != nil {
		return fmt.Errorf("%w: put: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// IsLive reports whether token has an entry. Store failures are returned as
// errors and must never be read as "live".
func (r *Registry) IsLive(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	n, err := r.client.Exists(ctx, key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: exists: %v", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// Revoke deletes the entry for token. Revoking an absent token is a no-op.
func (r *Registry) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := r.client.Del(ctx, key(token)).Err(); err != nil {
		return fmt.Errorf("%w: revoke: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// TTL returns the remaining lifetime of token's entry, or zero when absent.
func (r *Registry) TTL(ctx context.Context, token string) (time.Duration, error) {
	d, err := r.client.PTTL(ctx, key(token)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: ttl: %v", ErrStoreUnavailable, err)
	}
	if d < 0 {
		return 0, nil
	}
	return d, nil
}

func key(token string) string {
	return keyPrefix + token
}

func sentinel(identity domain.Identity) string {
	return fmt.Sprintf("%s:%d", identity.Role, identity.SubjectID)
}
