package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultCacheTTL = 5 * time.Minute

	categoriesKey      = "trivia:categories"
	questionVersionKey = "trivia:questions:version"
)

// RedisCache caches categories and question pages. Pages are keyed by a
// version counter that every mutation bumps, so stale pages simply stop
// being read and expire on their own.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) GetCategories(ctx context.Context) ([]Category, error) {
	data, err := c.client.Get(ctx, categoriesKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var categories []Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *RedisCache) SetCategories(ctx context.Context, categories []Category) error {
	data, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, categoriesKey, data, c.ttl).Err()
}

// GetPage returns the cached page, or nil on a miss. The returned version
// must be passed to SetPage so a page built before a concurrent mutation
// is filed under the version it was read from.
func (c *RedisCache) GetPage(ctx context.Context, number, perPage int) (*Page, int64, error) {
	version, err := c.version(ctx)
	if err != nil {
		return nil, 0, err
	}
	data, err := c.client.Get(ctx, pageKey(version, number, perPage)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, version, nil
		}
		return nil, 0, err
	}
	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, 0, err
	}
	return &page, version, nil
}

func (c *RedisCache) SetPage(ctx context.Context, version int64, perPage int, page Page) error {
	data, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, pageKey(version, page.Number, perPage), data, c.ttl).Err()
}

// InvalidateQuestions also drops the category list, since imports may add
// categories.
func (c *RedisCache) InvalidateQuestions(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, questionVersionKey)
		pipe.Del(ctx, categoriesKey)
		return nil
	})
	return err
}

func (c *RedisCache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, questionVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func pageKey(version int64, number, perPage int) string {
	return fmt.Sprintf("trivia:questions:v%d:page:%d:%d", version, number, perPage)
}
