// Package session owns the per-device state stores. Each device gets its
// five stores built and hydrated once; feature packages reach them through
// the small provider interfaces they declare.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wichananm65/storefront-gateway/internal/address"
	"github.com/wichananm65/storefront-gateway/internal/auth"
	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/cart"
	"github.com/wichananm65/storefront-gateway/internal/favorite"
	"github.com/wichananm65/storefront-gateway/internal/settings"
	"github.com/wichananm65/storefront-gateway/internal/state"
	"github.com/wichananm65/storefront-gateway/internal/storage"
	"golang.org/x/sync/singleflight"
)

// Session groups the stores of one device.
type Session struct {
	DeviceID  string
	Cart      *state.Store[cart.Cart]
	Favorites *state.Store[favorite.Favorites]
	Auth      *state.Store[auth.Session]
	Settings  *state.Store[settings.Settings]
	Location  *state.Store[address.Selection]

	mu       sync.Mutex
	lastSeen time.Time
}

// Hydrated reports whether every store has been loaded.
func (s *Session) Hydrated() bool {
	return s.Cart.Hydrated() && s.Favorites.Hydrated() && s.Auth.Hydrated() && s.Settings.Hydrated() && s.Location.Hydrated()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry caches hydrated sessions in memory and drops idle ones.
type Registry struct {
	storage  storage.Storage
	locales  *settings.Locales
	idle     time.Duration
	now      func() time.Time
	group    singleflight.Group
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(st storage.Storage, locales *settings.Locales, idle time.Duration) *Registry {
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &Registry{
		storage:  st,
		locales:  locales,
		idle:     idle,
		now:      time.Now,
		sessions: map[string]*Session{},
	}
}

// Get returns the hydrated session of deviceID, building it on first use.
// Concurrent first requests for one device share a single hydration.
func (r *Registry) Get(ctx context.Context, deviceID string) (*Session, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("session: missing device id")
	}
	r.mu.RLock()
	s, ok := r.sessions[deviceID]
	r.mu.RUnlock()
	if ok {
		s.touch(r.now())
		return s, nil
	}

	v, err, _ := r.group.Do(deviceID, func() (interface{}, error) {
		r.mu.RLock()
		existing, ok := r.sessions[deviceID]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		s := &Session{
			DeviceID:  deviceID,
			Cart:      state.New(r.storage, deviceID, storage.KeyCart, cart.Empty),
			Favorites: state.New(r.storage, deviceID, storage.KeyFavorites, favorite.Empty),
			Auth:      state.New(r.storage, deviceID, storage.KeyAuth, auth.Anonymous),
			Settings:  state.New(r.storage, deviceID, storage.KeySettings, r.locales.Initial),
			Location:  state.New(r.storage, deviceID, storage.KeyLocation, address.EmptySelection),
		}
		hydrators := []interface{ Hydrate(context.Context) error }{s.Cart, s.Favorites, s.Auth, s.Settings, s.Location}
		for _, h := range hydrators {
			if err := h.Hydrate(ctx); err != nil {
				return nil, err
			}
		}

		r.mu.Lock()
		r.sessions[deviceID] = s
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", deviceID, err)
	}
	s = v.(*Session)
	s.touch(r.now())
	return s, nil
}

// Sweep drops sessions idle for longer than the idle window and returns
// how many were dropped. Persisted state is untouched.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	t := time.NewTicker(r.idle / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				log.Printf("session: dropped %d idle sessions", n)
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Cart(ctx context.Context, deviceID string) (*state.Store[cart.Cart], error) {
	s, err := r.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return s.Cart, nil
}

func (r *Registry) Favorites(ctx context.Context, deviceID string) (*state.Store[favorite.Favorites], error) {
	s, err := r.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return s.Favorites, nil
}

func (r *Registry) Auth(ctx context.Context, deviceID string) (*state.Store[auth.Session], error) {
	s, err := r.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return s.Auth, nil
}

func (r *Registry) Settings(ctx context.Context, deviceID string) (*state.Store[settings.Settings], error) {
	s, err := r.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return s.Settings, nil
}

func (r *Registry) Location(ctx context.Context, deviceID string) (*state.Store[address.Selection], error) {
	s, err := r.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return s.Location, nil
}

// Scope is the backend caller scope of the device: its live token, if
// signed in, and its locale.
func (r *Registry) Scope(ctx context.Context, deviceID string) (backend.Scope, error) {
	s, err := r.Get(ctx, deviceID)
	if err != nil {
		return backend.Scope{}, err
	}
	sc := backend.Scope{Lang: r.locales.Default()}
	if st, err := s.Settings.State(); err == nil && st.Locale != "" {
		sc.Lang = st.Locale
	}
	if sess, err := s.Auth.State(); err == nil && sess.Authenticated(r.now()) {
		sc.Token = sess.Token
	}
	return sc, nil
}
