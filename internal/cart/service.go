package cart

import (
	"context"
	"log"

	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/coupon"
	"github.com/wichananm65/storefront-gateway/internal/metrics"
	"github.com/wichananm65/storefront-gateway/internal/money"
	"github.com/wichananm65/storefront-gateway/internal/state"
)

// Backend is the slice of the marketplace API the cart needs.
type Backend interface {
	Shop(ctx context.Context, sc backend.Scope, id int64) (backend.Shop, error)
	ProductsByIDs(ctx context.Context, sc backend.Scope, ids []int64) ([]backend.Product, error)
	GetCart(ctx context.Context, sc backend.Scope, shopID int64) (backend.Cart, error)
	UpdateCart(ctx context.Context, sc backend.Scope, upd backend.CartUpdate) (backend.Cart, error)
}

type CouponValidator interface {
	Validate(ctx context.Context, sc backend.Scope, code string, shopID int64) (coupon.Coupon, error)
}

// Stores resolves the hydrated cart store and caller scope of a device.
type Stores interface {
	Cart(ctx context.Context, deviceID string) (*state.Store[Cart], error)
	Scope(ctx context.Context, deviceID string) (backend.Scope, error)
}

// View is what cart endpoints return.
type View struct {
	Cart        Cart          `json:"cart"`
	Totals      DisplayTotals `json:"totals"`
	ItemCount   int           `json:"itemCount"`
	SyncPending bool          `json:"syncPending,omitempty"`
}

func NewView(c Cart) View {
	if c.Details == nil {
		c.Details = []Detail{}
	}
	return View{Cart: c, Totals: Compute(c).Display(), ItemCount: c.ItemCount()}
}

type AddonRequest struct {
	AddonID  int64 `json:"addonId"`
	Quantity int   `json:"quantity"`
}

type AddRequest struct {
	ProductID      int64          `json:"productId"`
	StockID        int64          `json:"stockId"`
	Quantity       int            `json:"quantity"`
	Addons         []AddonRequest `json:"addons"`
	ConfirmReplace bool           `json:"confirmReplace"`
}

// Service orchestrates cart operations.
type Service struct {
	stores  Stores
	backend Backend
	coupons CouponValidator
	policy  string
}

func NewService(stores Stores, be Backend, coupons CouponValidator, policy string) *Service {
	return &Service{stores: stores, backend: be, coupons: coupons, policy: policy}
}

func (s *Service) Policy() string { return s.policy }

func (s *Service) Get(ctx context.Context, deviceID string) (View, error) {
	store, err := s.stores.Cart(ctx, deviceID)
	if err != nil {
		return View{}, err
	}
	c, err := store.State()
	if err != nil {
		return View{}, err
	}
	return NewView(c), nil
}

// AddItem prices the requested product from backend data and adds it.
func (s *Service) AddItem(ctx context.Context, deviceID string, req AddRequest) (View, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		return View{}, ErrInvalidQuantity
	}
	sc, err := s.stores.Scope(ctx, deviceID)
	if err != nil {
		return View{}, err
	}

	products, err := s.backend.ProductsByIDs(ctx, sc, []int64{req.ProductID})
	if err != nil {
		return View{}, err
	}
	var product *backend.Product
	for i := range products {
		if products[i].ID == req.ProductID {
			product = &products[i]
			break
		}
	}
	if product == nil {
		return View{}, ErrProductNotFound
	}
	line, err := priceLine(*product, req)
	if err != nil {
		return View{}, err
	}
	line.Shop, err = s.backend.Shop(ctx, sc, product.ShopID)
	if err != nil {
		return View{}, err
	}
	return s.mutate(ctx, deviceID, Add(line, s.policy, req.ConfirmReplace), true)
}

func priceLine(p backend.Product, req AddRequest) (Line, error) {
	var stock *backend.Stock
	for i := range p.Stocks {
		if req.StockID == 0 || p.Stocks[i].ID == req.StockID {
			stock = &p.Stocks[i]
			break
		}
	}
	if stock == nil {
		return Line{}, ErrStockNotFound
	}

	d := Detail{
		ProductID: p.ID,
		StockID:   stock.ID,
		Title:     p.Title,
		Quantity:  req.Quantity,
		UnitPrice: money.FromFloat(stock.Price),
	}
	for _, e := range stock.Extras {
		d.Extras = append(d.Extras, Extra{GroupID: e.GroupID, OptionIndex: e.OptionIndex})
	}
	for _, ar := range req.Addons {
		found := false
		for _, a := range p.Addons {
			if a.ID == ar.AddonID {
				qty := ar.Quantity
				if qty < 1 {
					qty = 1
				}
				d.Addons = append(d.Addons, Addon{AddonID: a.ID, Active: true, Quantity: qty, Price: money.FromFloat(a.Price), Title: a.Title})
				found = true
				break
			}
		}
		if !found {
			return Line{}, ErrAddonNotFound
		}
	}
	return Line{ShopID: p.ShopID, Detail: d}, nil
}

func (s *Service) SetQuantity(ctx context.Context, deviceID string, index, qty int) (View, error) {
	return s.mutate(ctx, deviceID, SetQuantity(index, qty), true)
}

func (s *Service) Increment(ctx context.Context, deviceID string, index int) (View, error) {
	return s.mutate(ctx, deviceID, Increment(index), true)
}

func (s *Service) Decrement(ctx context.Context, deviceID string, index int) (View, error) {
	return s.mutate(ctx, deviceID, Decrement(index), true)
}

func (s *Service) SetAddon(ctx context.Context, deviceID string, index int, addonID int64, active bool, qty int) (View, error) {
	return s.mutate(ctx, deviceID, SetAddon(index, addonID, active, qty), true)
}

func (s *Service) Remove(ctx context.Context, deviceID string, index int) (View, error) {
	return s.mutate(ctx, deviceID, Remove(index), true)
}

func (s *Service) Clear(ctx context.Context, deviceID string) (View, error) {
	return s.mutate(ctx, deviceID, Clear(), true)
}

// ApplyCoupon validates code against the backend and stores it on the cart.
// A rejected code leaves the cart untouched.
func (s *Service) ApplyCoupon(ctx context.Context, deviceID, code string) (View, error) {
	store, err := s.stores.Cart(ctx, deviceID)
	if err != nil {
		return View{}, err
	}
	cur, err := store.State()
	if err != nil {
		return View{}, err
	}
	if cur.IsEmpty() {
		return View{}, ErrEmpty
	}
	sc, err := s.stores.Scope(ctx, deviceID)
	if err != nil {
		return View{}, err
	}
	cp, err := s.coupons.Validate(ctx, sc, code, cur.ShopID)
	if err != nil {
		return View{}, err
	}
	return s.mutate(ctx, deviceID, ApplyCoupon(cp, cur.ShopID), false)
}

func (s *Service) RemoveCoupon(ctx context.Context, deviceID string) (View, error) {
	return s.mutate(ctx, deviceID, RemoveCoupon(), false)
}

// Sync re-fetches the server cart of an authenticated device and lets it
// replace the local lines. Guest carts are returned as they are.
func (s *Service) Sync(ctx context.Context, deviceID string) (View, error) {
	store, err := s.stores.Cart(ctx, deviceID)
	if err != nil {
		return View{}, err
	}
	sc, err := s.stores.Scope(ctx, deviceID)
	if err != nil {
		return View{}, err
	}
	cur, err := store.State()
	if err != nil {
		return View{}, err
	}
	if sc.Token == "" {
		return NewView(cur), nil
	}

	srv, err := s.backend.GetCart(ctx, sc, cur.ShopID)
	if err != nil {
		return View{}, err
	}
	return s.reconcile(ctx, store, sc, cur.ShopID, srv)
}

// mutate dispatches a locally and, for server-backed carts, pushes the
// result and adopts the server's answer. A failed push keeps the local
// state and flags the view for a later sync.
func (s *Service) mutate(ctx context.Context, deviceID string, a Action, push bool) (View, error) {
	store, err := s.stores.Cart(ctx, deviceID)
	if err != nil {
		return View{}, err
	}
	sc, err := s.stores.Scope(ctx, deviceID)
	if err != nil {
		return View{}, err
	}

	prevShop := int64(0)
	if cur, err := store.State(); err == nil {
		prevShop = cur.ShopID
	}
	next, err := store.Dispatch(ctx, a)
	if err != nil {
		metrics.CartMutationsTotal.WithLabelValues(a.Name(), "rejected").Inc()
		return View{}, err
	}
	metrics.CartMutationsTotal.WithLabelValues(a.Name(), "ok").Inc()

	if !push || sc.Token == "" {
		return NewView(next), nil
	}
	srv, err := s.backend.UpdateCart(ctx, sc, toUpdate(next))
	if err != nil {
		log.Printf("cart: push for device %s failed: %v", deviceID, err)
		v := NewView(next)
		v.SyncPending = true
		return v, nil
	}
	return s.reconcile(ctx, store, sc, prevShop, srv)
}

func (s *Service) reconcile(ctx context.Context, store *state.Store[Cart], sc backend.Scope, prevShop int64, srv backend.Cart) (View, error) {
	next, err := store.Dispatch(ctx, Reconcile(srv))
	if err != nil {
		return View{}, err
	}
	if !next.IsEmpty() && (next.ShopID != prevShop || next.DeliveryFee.IsZero() && next.TaxPercent.IsZero()) {
		shop, err := s.backend.Shop(ctx, sc, next.ShopID)
		if err != nil {
			log.Printf("cart: shop %d pricing unavailable: %v", next.ShopID, err)
		} else if priced, err := store.Dispatch(ctx, Pricing(shop)); err == nil {
			next = priced
		}
	}
	return NewView(next), nil
}
