package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Idempotency maps a client Idempotency-Key to the order it created.
type Idempotency struct {
	rdb redis.Cmdable
}

func NewIdempotency(rdb redis.Cmdable) *Idempotency { return &Idempotency{rdb: rdb} }

// Lookup returns the order id stored for key, if any.
func (i *Idempotency) Lookup(ctx context.Context, key string) (string, bool, error) {
	id, err := i.rdb.Get(ctx, fmt.Sprintf(KeyIdemOrderCreate, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Remember stores key -> orderID unless the key is already taken. It returns the
// order id that won: orderID itself, or the one stored by an earlier request.
func (i *Idempotency) Remember(ctx context.Context, key, orderID string) (string, error) {
	k := fmt.Sprintf(KeyIdemOrderCreate, key)
	ok, err := i.rdb.SetNX(ctx, k, orderID, TTLIdempotency).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return orderID, nil
	}
	return i.rdb.Get(ctx, k).Result()
}
