package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/projectdesk/projectdesk/internal/model"
)

// Cache key prefixes and TTLs.
const (
	projectKeyPrefix  = "project:"
	negCacheKeySuffix = ":neg"

	// DefaultProjectTTL is the TTL for cached project data. Writes
	// invalidate eagerly, so this only bounds staleness after missed
	// invalidations.
	DefaultProjectTTL = time.Hour

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 5 * time.Minute
)

// ErrCacheMiss is returned when a key is absent from the cache.
var ErrCacheMiss = errors.New("cache miss")

func projectKey(id int64) string {
	return projectKeyPrefix + strconv.FormatInt(id, 10)
}

// GetProject retrieves a project from cache by ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	key := projectKey(id)

	result, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	cached := &model.CachedProject{
		Name:         result["name"],
		Description:  result["description"],
		OwnerID:      result["owner_id"],
		Participants: result["participants"],
		CreatedAt:    result["created_at"],
		UpdatedAt:    result["updated_at"],
	}

	return cached.ToProject(id), nil
}

// SetProject stores a project in cache.
func (c *Cache) SetProject(ctx context.Context, project *model.Project) error {
	key := projectKey(project.ID)
	cached := project.ToCachedProject()

	fields := map[string]any{
		"name":        cached.Name,
		"description": cached.Description,
		"owner_id":    cached.OwnerID,
		"created_at":  cached.CreatedAt,
		"updated_at":  cached.UpdatedAt,
	}
	// An absent field reads back as "", same as an empty list.
	if cached.Participants != "" {
		fields["participants"] = cached.Participants
	}

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, DefaultProjectTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache project: %w", err)
	}

	// Remove negative cache if exists
	c.client.Del(ctx, key+negCacheKeySuffix)

	return nil
}

// DeleteProject removes a project from cache.
func (c *Cache) DeleteProject(ctx context.Context, id int64) error {
	key := projectKey(id)

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete project from cache: %w", err)
	}

	return nil
}

// IsNegativelyCached checks if a project ID is known to be absent.
func (c *Cache) IsNegativelyCached(ctx context.Context, id int64) (bool, error) {
	key := projectKey(id) + negCacheKeySuffix

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a project ID as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, id int64) error {
	key := projectKey(id) + negCacheKeySuffix

	if err := c.client.SetEx(ctx, key, "", NegativeCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
