package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/authcore/authcore/internal/revocation"
)

const (
	// revokedPrefix is the Redis key prefix for revoked token identifiers.
	revokedPrefix = "revoked:jti:"
	// minRevocationTTL keeps already-expired tokens listed briefly so a
	// racing verification still observes the revocation.
	minRevocationTTL = time.Second
)

// RevocationRegistry stores revoked jti values in Redis. Each key expires
// together with the token it names, so the set never outgrows the number
// of live tokens.
type RevocationRegistry struct {
	cache *Cache
	now   func() time.Time
}

var _ revocation.Registry = (*RevocationRegistry)(nil)

// NewRevocationRegistry creates a Redis-backed revocation registry.
func NewRevocationRegistry(c *Cache) *RevocationRegistry {
	return &RevocationRegistry{cache: c, now: time.Now}
}

// Revoke marks jti as revoked until expiresAt.
func (r *RevocationRegistry) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return revocation.ErrEmptyJTI
	}

	ttl := expiresAt.Sub(r.now())
	if ttl < minRevocationTTL {
		ttl = minRevocationTTL
	}

	if err := r.cache.client.Set(ctx, revokedKey(jti), expiresAt.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti has been revoked.
func (r *RevocationRegistry) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.cache.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}

func revokedKey(jti string) string {
	return revokedPrefix + jti
}
