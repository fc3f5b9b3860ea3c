package redisx

import (
	"context"
	"encoding/json"

	"github.com/ariefcatur/go-kiosk-orders/internal/menu"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CategoryCache caches the distinct menu categories. Errors degrade to a cache miss.
type CategoryCache struct {
	rdb redis.Cmdable
	log *zap.Logger
}

var _ menu.CategoryCache = (*CategoryCache)(nil)

func NewCategoryCache(rdb redis.Cmdable, log *zap.Logger) *CategoryCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &CategoryCache{rdb: rdb, log: log.Named("redis")}
}

func (c *CategoryCache) GetCategories(ctx context.Context) ([]string, bool) {
	b, err := c.rdb.Get(ctx, KeyMenuCategories).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("category cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var cats []string
	if err := json.Unmarshal(b, &cats); err != nil {
		return nil, false
	}
	return cats, true
}

func (c *CategoryCache) SetCategories(ctx context.Context, cats []string) {
	b, _ := json.Marshal(cats)
	if err := c.rdb.Set(ctx, KeyMenuCategories, b, TTLMenuCategories).Err(); err != nil {
		c.log.Warn("category cache write failed", zap.Error(err))
	}
}

func (c *CategoryCache) InvalidateCategories(ctx context.Context) {
	if err := c.rdb.Del(ctx, KeyMenuCategories).Err(); err != nil {
		c.log.Warn("category cache invalidate failed", zap.Error(err))
	}
}
