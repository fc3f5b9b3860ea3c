package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Dedup marks processed event ids per consumer service.
type Dedup struct {
	rdb     redis.Cmdable
	service string
}

func NewDedup(rdb redis.Cmdable, service string) *Dedup {
	return &Dedup{rdb: rdb, service: service}
}

// Seen reports whether the event was already processed.
func (d *Dedup) Seen(ctx context.Context, eventID string) (bool, error) {
	return Exists(ctx, d.rdb, fmt.Sprintf(KeyDedup, d.service, eventID))
}

// Mark records the event as processed. Call it only after the handler succeeded,
// otherwise a retry would be skipped.
func (d *Dedup) Mark(ctx context.Context, eventID string) error {
	return d.rdb.Set(ctx, fmt.Sprintf(KeyDedup, d.service, eventID), "1", TTLDedup).Err()
}
