package payment

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/wichananm65/storefront-gateway/internal/storage"
)

// Markers keeps the pending-payment marker of a device: the order id a
// customer was sent to a gateway for, and when.
type Markers struct {
	storage storage.Storage
	ttl     time.Duration
	now     func() time.Time
}

func NewMarkers(st storage.Storage, ttl time.Duration) *Markers {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Markers{storage: st, ttl: ttl, now: time.Now}
}

// Put records orderID as pending for deviceID.
func (m *Markers) Put(ctx context.Context, deviceID, orderID string) error {
	if err := m.storage.Set(ctx, deviceID, storage.KeyPendingOrderID, orderID); err != nil {
		return err
	}
	ts := strconv.FormatInt(m.now().UnixMilli(), 10)
	return m.storage.Set(ctx, deviceID, storage.KeyPendingOrderTime, ts)
}

// Take reads the marker and removes it. A marker older than the TTL, or
// one without a readable time, is removed and reported as absent.
func (m *Markers) Take(ctx context.Context, deviceID string) (string, bool, error) {
	id, err := m.storage.Get(ctx, deviceID, storage.KeyPendingOrderID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", false, err
	}
	ts, terr := m.storage.Get(ctx, deviceID, storage.KeyPendingOrderTime)
	if terr != nil && !errors.Is(terr, storage.ErrNotFound) {
		return "", false, terr
	}
	if derr := m.storage.Delete(ctx, deviceID, storage.KeyPendingOrderID, storage.KeyPendingOrderTime); derr != nil {
		return "", false, derr
	}
	if id == "" || ts == "" {
		return "", false, nil
	}
	ms, perr := strconv.ParseInt(ts, 10, 64)
	if perr != nil {
		return "", false, nil
	}
	if m.now().Sub(time.UnixMilli(ms)) > m.ttl {
		return "", false, nil
	}
	return id, true, nil
}
