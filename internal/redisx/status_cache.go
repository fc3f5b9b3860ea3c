package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-kiosk-orders/internal/orders"
	"github.com/redis/go-redis/v9"
)

// setIfNewer keeps the snapshot with the latest updated_at. Writers run after
// the order lock is released, so they may arrive out of commit order.
// KEYS[1] hash {v: updated_at micros, snap: json}; ARGV: micros, json, ttl ms.
var setIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'v')
if cur and tonumber(cur) > tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'snap', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// StatusCache keeps the latest status snapshot per order so status polling
// (kiosk screen, pickup board) doesn't hit the database.
type StatusCache struct {
	rdb redis.Cmdable
}

var _ orders.StatusCache = (*StatusCache)(nil)

func NewStatusCache(rdb redis.Cmdable) *StatusCache { return &StatusCache{rdb: rdb} }

// SetStatus is a no-op when a newer snapshot is already cached.
func (c *StatusCache) SetStatus(ctx context.Context, s orders.StatusSnapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(KeyOrderStatus, s.OrderID)
	return setIfNewer.Run(ctx, c.rdb, []string{key},
		s.UpdatedAt.UnixMicro(), b, TTLStatusCache.Milliseconds()).Err()
}

func (c *StatusCache) GetStatus(ctx context.Context, orderID string) (orders.StatusSnapshot, bool, error) {
	var s orders.StatusSnapshot
	b, err := c.rdb.HGet(ctx, fmt.Sprintf(KeyOrderStatus, orderID), "snap").Bytes()
	if errors.Is(err, redis.Nil) {
		return s, false, nil
	}
	if err != nil {
		return s, false, err
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, false, fmt.Errorf("decode status cache: %w", err)
	}
	return s, true, nil
}

func (c *StatusCache) DeleteStatus(ctx context.Context, orderID string) error {
	return c.rdb.Del(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Err()
}
