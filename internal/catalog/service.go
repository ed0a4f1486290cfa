// Package catalog proxies the shop and product listings of the backend.
package catalog

import (
	"context"
	"errors"

	"github.com/wichananm65/storefront-gateway/internal/address"
	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/state"
)

var ErrNoLocation = errors.New("no delivery location")

type Backend interface {
	Shops(ctx context.Context, sc backend.Scope, q backend.ListQuery) (backend.Page, error)
	NearbyShops(ctx context.Context, sc backend.Scope, lat, lng float64, q backend.ListQuery) (backend.Page, error)
	ShopCategories(ctx context.Context, sc backend.Scope, q backend.ListQuery) (backend.Page, error)
	Products(ctx context.Context, sc backend.Scope, q backend.ListQuery) (backend.Page, error)
	ProductsByIDs(ctx context.Context, sc backend.Scope, ids []int64) ([]backend.Product, error)
}

type Stores interface {
	Location(ctx context.Context, deviceID string) (*state.Store[address.Selection], error)
	Scope(ctx context.Context, deviceID string) (backend.Scope, error)
}

type Service struct {
	backend Backend
	stores  Stores
}

func NewService(be Backend, stores Stores) *Service {
	return &Service{backend: be, stores: stores}
}

func (s *Service) Shops(ctx context.Context, deviceID string, q backend.ListQuery) (backend.Page, error) {
	sc, err := s.stores.Scope(ctx, deviceID)
	if err != nil {
		return backend.Page{}, err
	}
	return s.backend.Shops(ctx, sc, q)
}

// NearbyShops lists shops around loc, or around the device's selected
// delivery location when loc is nil.
func (s *Service) NearbyShops(ctx context.Context, deviceID string, loc *address.Location, q backend.ListQuery) (backend.Page, error) {
	sc, err := s.stores.Scope(ctx, deviceID)
	if err != nil {
		return backend.Page{}, err
	}
	if loc == nil {
		store, err := s.stores.Location(ctx, deviceID)
		if err != nil {
			return backend.Page{}, err
		}
		sel, err := store.State()
		if err != nil {
			return backend.Page{}, err
		}
		if sel.Address == nil {
			return backend.Page{}, ErrNoLocation
		}
		loc = &sel.Address.Location
	}
	return s.backend.NearbyShops(ctx, sc, loc.Latitude, loc.Longitude, q)
}

func (s *Service) ShopCategories(ctx context.Context, deviceID string, q backend.ListQuery) (backend.Page, error) {
	sc, err := s.stores.Scope(ctx, deviceID)
	if err != nil {
		return backend.Page{}, err
	}
	return s.backend.ShopCategories(ctx, sc, q)
}

func (s *Service) Products(ctx context.Context, deviceID string, q backend.ListQuery) (backend.Page, error) {
	sc, err := s.stores.Scope(ctx, deviceID)
	if err != nil {
		return backend.Page{}, err
	}
	return s.backend.Products(ctx, sc, q)
}

func (s *Service) ProductsByIDs(ctx context.Context, deviceID string, ids []int64) ([]backend.Product, error) {
	sc, err := s.stores.Scope(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return s.backend.ProductsByIDs(ctx, sc, ids)
}
