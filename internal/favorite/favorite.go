package favorite

import (
	"errors"

	"github.com/wichananm65/storefront-gateway/internal/state"
)

var (
	ErrAlreadyFavorite = errors.New("product already in favorites")
	ErrNotFavorite     = errors.New("product not in favorites")
)

// Favorites is the device's list of favorite product ids, newest last.
type Favorites struct {
	ProductIDs []int64 `json:"productIds"`
}

func Empty() Favorites { return Favorites{ProductIDs: []int64{}} }

func (f Favorites) Has(productID int64) bool {
	for _, id := range f.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

func Add(productID int64) state.Action[Favorites] {
	return state.ActionFunc[Favorites]{Label: "add", Fn: func(f Favorites) (Favorites, error) {
		if f.Has(productID) {
			return f, ErrAlreadyFavorite
		}
		ids := make([]int64, 0, len(f.ProductIDs)+1)
		ids = append(ids, f.ProductIDs...)
		return Favorites{ProductIDs: append(ids, productID)}, nil
	}}
}

func Remove(productID int64) state.Action[Favorites] {
	return state.ActionFunc[Favorites]{Label: "remove", Fn: func(f Favorites) (Favorites, error) {
		if !f.Has(productID) {
			return f, ErrNotFavorite
		}
		ids := make([]int64, 0, len(f.ProductIDs))
		for _, id := range f.ProductIDs {
			if id != productID {
				ids = append(ids, id)
			}
		}
		return Favorites{ProductIDs: ids}, nil
	}}
}
