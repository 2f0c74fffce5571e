package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/photo-moderation/models"
	"github.com/amirphl/photo-moderation/utils"
	"github.com/redis/go-redis/v9"
)

// TagCache caches the full tag list
type TagCache interface {
	GetTags(ctx context.Context) ([]models.Tag, bool, error)
	SetTags(ctx context.Context, tags []models.Tag) error
	Invalidate(ctx context.Context) error
}

// RedisTagCache stores the tag list as one JSON value
type RedisTagCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisTagCache(client *redis.Client) *RedisTagCache {
	return &RedisTagCache{client: client, key: utils.TagListCacheKey, ttl: utils.TagListCacheTTL}
}

func (c *RedisTagCache) GetTags(ctx context.Context) ([]models.Tag, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read tag cache: %w", err)
	}

	var tags []models.Tag
	if err := json.Unmarshal(raw, &tags); err != nil {
		// a corrupt entry is treated as a miss
		return nil, false, nil
	}
	return tags, true, nil
}

func (c *RedisTagCache) SetTags(ctx context.Context, tags []models.Tag) error {
	raw, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, raw, c.ttl).Err()
}

func (c *RedisTagCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}

// NoopTagCache never hits
type NoopTagCache struct{}

func (NoopTagCache) GetTags(context.Context) ([]models.Tag, bool, error) { return nil, false, nil }
func (NoopTagCache) SetTags(context.Context, []models.Tag) error          { return nil }
func (NoopTagCache) Invalidate(context.Context) error                     { return nil }
