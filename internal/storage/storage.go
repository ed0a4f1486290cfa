// Package storage is the per-device key/value space that stands in for the
// browser's local storage: persisted state slices and the pending-payment
// marker live here, keyed by device id.
package storage

import (
	"context"
	"errors"
)

// Well-known keys.
const (
	KeyCart             = "cart"
	KeyFavorites        = "favorites"
	KeyAuth             = "auth"
	KeySettings         = "settings"
	KeyLocation         = "location"
	KeyPendingOrderID   = "pending_order_id"
	KeyPendingOrderTime = "pending_order_time"
)

var ErrNotFound = errors.New("storage: key not found")

// Storage provides access to device-scoped values.
type Storage interface {
	Get(ctx context.Context, deviceID, key string) (string, error)
	Set(ctx context.Context, deviceID, key, value string) error
	Delete(ctx context.Context, deviceID string, keys ...string) error
}
