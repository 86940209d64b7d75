package redisx

import "time"

const (
	// Catalog cache: product:{id} -> JSON product, or "notfound"
	KeyProduct = "product:%d"

	// Order placement replay: idem:order:place:{user_id}:{key} -> JSON receipt
	KeyIdemOrderPlace = "idem:order:place:%d:%s"

	// Placement in flight for the same key: idem:order:place:{user_id}:{key}:pending
	KeyIdemOrderPending = "idem:order:place:%d:%s:pending"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLIdemPending = 30 * time.Second
	TTLProduct     = 5 * time.Minute
	TTLNotFound    = 1 * time.Minute
	TTLDedup       = 48 * time.Hour
)

// NotFoundMarker is cached in place of a product that does not exist.
const NotFoundMarker = "notfound"
