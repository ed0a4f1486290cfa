package order

import (
	"context"
	"errors"

	"github.com/wichananm65/storefront-gateway/internal/backend"
)

var ErrNotFound = errors.New("order not found")

type Backend interface {
	Orders(ctx context.Context, sc backend.Scope, q backend.ListQuery) (backend.Page, error)
	OrderDetails(ctx context.Context, sc backend.Scope, id string) (backend.Order, error)
}

// Service reads orders straight from the backend; order and payment status
// are never answered from local state.
type Service struct {
	backend Backend
}

func NewService(be Backend) *Service {
	return &Service{backend: be}
}

func (s *Service) List(ctx context.Context, sc backend.Scope, q backend.ListQuery) (backend.Page, error) {
	return s.backend.Orders(ctx, sc, q)
}

func (s *Service) Get(ctx context.Context, sc backend.Scope, id string) (backend.Order, error) {
	o, err := s.backend.OrderDetails(ctx, sc, id)
	if backend.IsNotFound(err) {
		return backend.Order{}, ErrNotFound
	}
	return o, err
}
