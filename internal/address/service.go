package address

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/state"
)

var ErrNoLocation = errors.New("address has no usable location")

// Selection is the persisted location slice: the delivery address the
// customer picked, if any.
type Selection struct {
	Address *Address `json:"address"`
}

func EmptySelection() Selection { return Selection{} }

type Stores interface {
	Location(ctx context.Context, deviceID string) (*state.Store[Selection], error)
	Scope(ctx context.Context, deviceID string) (backend.Scope, error)
}

type Backend interface {
	Addresses(ctx context.Context, sc backend.Scope) ([]json.RawMessage, error)
}

// Service orchestrates address retrieval and location selection.
type Service struct {
	stores  Stores
	backend Backend
}

func NewService(stores Stores, be Backend) *Service {
	return &Service{stores: stores, backend: be}
}

// GetAddresses lists the customer's saved addresses; entries without a
// usable location are dropped.
func (s *Service) GetAddresses(ctx context.Context, sc backend.Scope) ([]Address, error) {
	raws, err := s.backend.Addresses(ctx, sc)
	if err != nil {
		return nil, err
	}
	out := make([]Address, 0, len(raws))
	for _, raw := range raws {
		if a := Normalize(raw); a != nil {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *Service) GetLocation(ctx context.Context, deviceID string) (Selection, error) {
	store, err := s.stores.Location(ctx, deviceID)
	if err != nil {
		return Selection{}, err
	}
	return store.State()
}

func (s *Service) SetLocation(ctx context.Context, deviceID string, raw json.RawMessage) (Selection, error) {
	a := Normalize(raw)
	if a == nil {
		return Selection{}, ErrNoLocation
	}
	store, err := s.stores.Location(ctx, deviceID)
	if err != nil {
		return Selection{}, err
	}
	return store.Dispatch(ctx, state.ActionFunc[Selection]{Label: "select", Fn: func(Selection) (Selection, error) {
		return Selection{Address: a}, nil
	}})
}
