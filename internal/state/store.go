// Package state implements the persisted client-state containers.
//
// A Store starts Uninitialized and must be hydrated from device storage
// before anything may read or mutate it. Mutations are Actions; an action's
// result is written to storage before it becomes the visible state.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/wichananm65/storefront-gateway/internal/storage"
)

var ErrNotHydrated = errors.New("state: store not hydrated")

// Status is the hydration lifecycle of a store.
type Status int

const (
	Uninitialized Status = iota
	Hydrated
)

func (s Status) String() string {
	if s == Hydrated {
		return "hydrated"
	}
	return "uninitialized"
}

// Action is a named state transition. Apply must not modify its argument
// in place; it returns the next state or an error that leaves the store
// unchanged.
type Action[S any] interface {
	Name() string
	Apply(S) (S, error)
}

// ActionFunc adapts a function to Action.
type ActionFunc[S any] struct {
	Label string
	Fn    func(S) (S, error)
}

func (a ActionFunc[S]) Name() string         { return a.Label }
func (a ActionFunc[S]) Apply(s S) (S, error) { return a.Fn(s) }

// Store holds one persisted slice of device state.
type Store[S any] struct {
	mu       sync.RWMutex
	storage  storage.Storage
	deviceID string
	key      string
	initial  func() S
	state    S
	status   Status
}

// New returns an uninitialized store for key on deviceID.
func New[S any](st storage.Storage, deviceID, key string, initial func() S) *Store[S] {
	return &Store[S]{storage: st, deviceID: deviceID, key: key, initial: initial}
}

// Key returns the storage key of the slice.
func (s *Store[S]) Key() string { return s.key }

// Status reports the lifecycle state.
func (s *Store[S]) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Hydrated reports whether the store may be trusted.
func (s *Store[S]) Hydrated() bool { return s.Status() == Hydrated }

// Hydrate loads the persisted slice. It runs once; later calls are no-ops.
// Missing or unreadable payloads fall back to the initial state.
func (s *Store[S]) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Hydrated {
		return nil
	}

	next := s.initial()
	raw, err := s.storage.Get(ctx, s.deviceID, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("hydrate %s: %w", s.key, err)
	default:
		if err := json.Unmarshal([]byte(raw), &next); err != nil {
			log.Printf("state: discarding unreadable %s slice for device %s: %v", s.key, s.deviceID, err)
			next = s.initial()
		}
	}

	s.state = next
	s.status = Hydrated
	return nil
}

// State returns the current state.
func (s *Store[S]) State() (S, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status != Hydrated {
		var zero S
		return zero, ErrNotHydrated
	}
	return s.state, nil
}

// Dispatch applies a to the current state, persists the result and makes it
// visible. On any error the previous state is kept and returned.
func (s *Store[S]) Dispatch(ctx context.Context, a Action[S]) (S, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != Hydrated {
		var zero S
		return zero, ErrNotHydrated
	}

	next, err := a.Apply(s.state)
	if err != nil {
		return s.state, err
	}
	if err := s.persist(ctx, next); err != nil {
		return s.state, err
	}
	s.state = next
	return next, nil
}

// Reset restores the initial state and removes the persisted slice.
func (s *Store[S]) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != Hydrated {
		return ErrNotHydrated
	}
	if err := s.storage.Delete(ctx, s.deviceID, s.key); err != nil {
		return fmt.Errorf("reset %s: %w", s.key, err)
	}
	s.state = s.initial()
	return nil
}

func (s *Store[S]) persist(ctx context.Context, v S) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("persist %s: %w", s.key, err)
	}
	if err := s.storage.Set(ctx, s.deviceID, s.key, string(b)); err != nil {
		return fmt.Errorf("persist %s: %w", s.key, err)
	}
	return nil
}
