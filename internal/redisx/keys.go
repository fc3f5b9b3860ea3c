package redisx

import "time"

const (
	// Idempotency create order: idem:order:create:{Idempotency-Key} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s"

	// Cache status order: order_status:{order_id} -> hash {v: updated_at micros, snap: StatusSnapshot JSON}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Cache kategori menu (list JSON)
	KeyMenuCategories = "menu:categories"
)

var (
	TTLIdempotency    = 24 * time.Hour
	TTLStatusCache    = 5 * time.Minute
	TTLDedup          = 48 * time.Hour
	TTLMenuCategories = 5 * time.Minute
)
