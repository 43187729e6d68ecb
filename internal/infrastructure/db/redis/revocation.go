package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationCache marks logged-out token values in Redis so the auth guard
// can reject them without a store round trip. Entries expire with the token
// itself; the persistent store remains authoritative.
// Key format: revoked:<token_value>
type RevocationCache struct {
	client *redis.Client
}

// NewRevocationCache creates a RevocationCache wrapping the given Redis client.
func NewRevocationCache(client *redis.Client) *RevocationCache {
	return &RevocationCache{client: client}
}

// MarkRevoked records that the token value has been revoked. ttl bounds the
// entry's life; anything past the token's own expiry is wasted memory.
func (r *RevocationCache) MarkRevoked(ctx context.Context, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return r.client.Set(ctx, r.key(value), "1", ttl).Err()
}

// IsRevoked reports whether the token value has a revocation mark.
func (r *RevocationCache) IsRevoked(ctx context.Context, value string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(value)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func (r *RevocationCache) key(value string) string {
	return "revoked:" + value
}
