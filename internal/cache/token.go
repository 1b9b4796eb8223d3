package cache

import (
	"context"
	"fmt"
	"time"
)

// revokedTokenPrefix is the Redis key prefix for revoked token IDs (jti).
const revokedTokenPrefix = "revoked:token:"

// RevokeToken records a token ID as revoked until the token would have
// expired anyway. Logout uses this to invalidate still-valid tokens.
func (c *Cache) RevokeToken(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		// Already expired, nothing to track.
		return nil
	}

	key := revokedTokenPrefix + tokenID
	if err := c.client.SetEx(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// IsTokenRevoked checks whether a token ID has been revoked.
func (c *Cache) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}

	exists, err := c.client.Exists(ctx, revokedTokenPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", err)
	}

	return exists > 0, nil
}
