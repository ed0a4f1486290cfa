package cart

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-gateway/internal/coupon"
	"github.com/wichananm65/storefront-gateway/internal/money"
)

var (
	ErrDifferentShop   = errors.New("cart holds products from another shop")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrAddonNotFound   = errors.New("addon not found on cart line")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrEmpty           = errors.New("cart is empty")
	ErrProductNotFound = errors.New("product not found")
	ErrStockNotFound   = errors.New("stock not found")
	ErrShopChanged     = errors.New("cart shop changed while applying the coupon")
)

// Extra is one chosen option of an extras group.
type Extra struct {
	GroupID     int64 `json:"groupId"`
	OptionIndex int   `json:"optionIndex"`
}

// Addon is an optional add-on on a line. Inactive addons are kept so the
// customer can switch them back on without losing the chosen quantity.
type Addon struct {
	AddonID  int64           `json:"addonId"`
	Active   bool            `json:"active"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Title    string          `json:"title,omitempty"`
}

// Total is price × max(quantity, 1) for active addons, zero otherwise.
func (a Addon) Total() decimal.Decimal {
	if !a.Active {
		return money.Zero
	}
	q := a.Quantity
	if q < 1 {
		q = 1
	}
	return a.Price.Mul(decimal.NewFromInt(int64(q)))
}

// Detail is one cart line. UnitPrice is snapshotted from the stock at add
// time and replaced by the server price after reconciliation.
type Detail struct {
	ProductID int64           `json:"productId"`
	StockID   int64           `json:"stockId"`
	Title     string          `json:"title,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Extras    []Extra         `json:"extras,omitempty"`
	Addons    []Addon         `json:"addons,omitempty"`
}

// AddonTotal sums the active addons of the line.
func (d Detail) AddonTotal() decimal.Decimal {
	sum := money.Zero
	for _, a := range d.Addons {
		sum = sum.Add(a.Total())
	}
	return sum
}

func (d Detail) LineTotal() decimal.Decimal {
	return d.UnitPrice.Add(d.AddonTotal()).Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// sameSelection reports whether two lines differ only in quantity.
func (d Detail) sameSelection(o Detail) bool {
	if d.ProductID != o.ProductID || d.StockID != o.StockID || len(d.Extras) != len(o.Extras) || len(d.Addons) != len(o.Addons) {
		return false
	}
	for i := range d.Extras {
		if d.Extras[i] != o.Extras[i] {
			return false
		}
	}
	for i := range d.Addons {
		a, b := d.Addons[i], o.Addons[i]
		if a.AddonID != b.AddonID || a.Active != b.Active || a.Quantity != b.Quantity {
			return false
		}
	}
	return true
}

// Cart is the device's single-shop cart. DeliveryFee and TaxPercent are
// the shop's pricing captured when the first product was added.
type Cart struct {
	ShopID      int64           `json:"shopId,omitempty"`
	ServerID    int64           `json:"serverId,omitempty"`
	Details     []Detail        `json:"details"`
	Coupon      *coupon.Coupon  `json:"coupon,omitempty"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	TaxPercent  decimal.Decimal `json:"taxPercent"`
}

func Empty() Cart { return Cart{Details: []Detail{}} }

func (c Cart) IsEmpty() bool { return len(c.Details) == 0 }

func (c Cart) ItemCount() int {
	n := 0
	for _, d := range c.Details {
		n += d.Quantity
	}
	return n
}

func (c Cart) clone() Cart {
	out := c
	out.Details = make([]Detail, len(c.Details))
	for i, d := range c.Details {
		d.Extras = append([]Extra(nil), d.Extras...)
		d.Addons = append([]Addon(nil), d.Addons...)
		out.Details[i] = d
	}
	if c.Coupon != nil {
		cp := *c.Coupon
		out.Coupon = &cp
	}
	return out
}

// Totals is the exact, unrounded price breakdown of a cart.
type Totals struct {
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	DeliveryFee decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
}

// Compute derives the breakdown of c. An empty cart totals zero.
func Compute(c Cart) Totals {
	if c.IsEmpty() {
		return Totals{Subtotal: money.Zero, Discount: money.Zero, DeliveryFee: money.Zero, Tax: money.Zero, Total: money.Zero}
	}

	subtotal := money.Zero
	for _, d := range c.Details {
		subtotal = subtotal.Add(d.LineTotal())
	}
	discount := money.Zero
	if c.Coupon != nil {
		discount = c.Coupon.Discount(subtotal)
	}
	taxable := subtotal.Sub(discount)
	tax := money.Zero
	if c.TaxPercent.IsPositive() {
		tax = money.Percent(taxable, c.TaxPercent)
	}
	return Totals{
		Subtotal:    subtotal,
		Discount:    discount,
		DeliveryFee: c.DeliveryFee,
		Tax:         tax,
		Total:       taxable.Add(c.DeliveryFee).Add(tax),
	}
}

// DisplayTotals is the customer-facing breakdown, rounded half-up.
type DisplayTotals struct {
	Subtotal    string `json:"subtotal"`
	Discount    string `json:"discount"`
	DeliveryFee string `json:"deliveryFee"`
	Tax         string `json:"tax"`
	Total       string `json:"total"`
}

func (t Totals) Display() DisplayTotals {
	return DisplayTotals{
		Subtotal:    money.Display(t.Subtotal),
		Discount:    money.Display(t.Discount),
		DeliveryFee: money.Display(t.DeliveryFee),
		Tax:         money.Display(t.Tax),
		Total:       money.Display(t.Total),
	}
}
