package favorite

import (
	"context"

	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/state"
)

type Stores interface {
	Favorites(ctx context.Context, deviceID string) (*state.Store[Favorites], error)
	Scope(ctx context.Context, deviceID string) (backend.Scope, error)
}

type Catalog interface {
	ProductsByIDs(ctx context.Context, sc backend.Scope, ids []int64) ([]backend.Product, error)
}

type Service struct {
	stores  Stores
	catalog Catalog
}

func NewService(stores Stores, catalog Catalog) *Service {
	return &Service{stores: stores, catalog: catalog}
}

func (s *Service) AddFavorite(ctx context.Context, deviceID string, productID int64) ([]int64, error) {
	return s.dispatch(ctx, deviceID, Add(productID))
}

func (s *Service) RemoveFavorite(ctx context.Context, deviceID string, productID int64) ([]int64, error) {
	return s.dispatch(ctx, deviceID, Remove(productID))
}

func (s *Service) GetFavorites(ctx context.Context, deviceID string) ([]int64, error) {
	store, err := s.stores.Favorites(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	f, err := store.State()
	if err != nil {
		return nil, err
	}
	return f.ProductIDs, nil
}

// GetFavoriteProducts resolves the favorite ids into catalog products.
// Products the backend no longer knows are left out.
func (s *Service) GetFavoriteProducts(ctx context.Context, deviceID string) ([]backend.Product, error) {
	ids, err := s.GetFavorites(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	sc, err := s.stores.Scope(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return s.catalog.ProductsByIDs(ctx, sc, ids)
}

func (s *Service) dispatch(ctx context.Context, deviceID string, a state.Action[Favorites]) ([]int64, error) {
	store, err := s.stores.Favorites(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	f, err := store.Dispatch(ctx, a)
	if err != nil {
		return nil, err
	}
	return f.ProductIDs, nil
}
