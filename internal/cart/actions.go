package cart

import (
	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/config"
	"github.com/wichananm65/storefront-gateway/internal/coupon"
	"github.com/wichananm65/storefront-gateway/internal/money"
	"github.com/wichananm65/storefront-gateway/internal/state"
)

type Action = state.Action[Cart]

func action(name string, fn func(Cart) (Cart, error)) Action {
	return state.ActionFunc[Cart]{Label: name, Fn: func(c Cart) (Cart, error) {
		return fn(c.clone())
	}}
}

// Line is a priced line ready to be added, plus the shop pricing it came with.
type Line struct {
	ShopID int64
	Detail Detail
	Shop   backend.Shop
}

// Add puts line into the cart, merging it into an identical line. A line
// from another shop is handled per policy; confirmed replaces the cart
// under the confirm policy.
func Add(line Line, policy string, confirmed bool) Action {
	return action("add", func(c Cart) (Cart, error) {
		if line.Detail.Quantity < 1 {
			return c, ErrInvalidQuantity
		}
		serverID := c.ServerID
		if !c.IsEmpty() && c.ShopID != line.ShopID {
			switch {
			case policy == config.ShopSwitchReplace:
			case policy == config.ShopSwitchConfirm && confirmed:
			default:
				return c, ErrDifferentShop
			}
			c = Empty()
		}
		if c.IsEmpty() {
			c = Empty()
			c.ServerID = serverID
			c.ShopID = line.ShopID
			c.DeliveryFee = money.FromFloat(line.Shop.DeliveryFee)
			c.TaxPercent = money.FromFloat(line.Shop.Tax)
		}
		for i := range c.Details {
			if c.Details[i].sameSelection(line.Detail) {
				c.Details[i].Quantity += line.Detail.Quantity
				return c, nil
			}
		}
		c.Details = append(c.Details, line.Detail)
		return c, nil
	})
}

// SetQuantity sets the quantity of line index; zero removes the line.
func SetQuantity(index, qty int) Action {
	return action("set_quantity", func(c Cart) (Cart, error) {
		if qty < 0 {
			return c, ErrInvalidQuantity
		}
		if index < 0 || index >= len(c.Details) {
			return c, ErrLineNotFound
		}
		if qty == 0 {
			return removeLine(c, index), nil
		}
		c.Details[index].Quantity = qty
		return c, nil
	})
}

func Increment(index int) Action {
	return action("increment", func(c Cart) (Cart, error) {
		if index < 0 || index >= len(c.Details) {
			return c, ErrLineNotFound
		}
		c.Details[index].Quantity++
		return c, nil
	})
}

// Decrement lowers the quantity by one; the last unit removes the line.
func Decrement(index int) Action {
	return action("decrement", func(c Cart) (Cart, error) {
		if index < 0 || index >= len(c.Details) {
			return c, ErrLineNotFound
		}
		if c.Details[index].Quantity <= 1 {
			return removeLine(c, index), nil
		}
		c.Details[index].Quantity--
		return c, nil
	})
}

// SetAddon switches an addon of line index on or off. A positive qty also
// updates its quantity.
func SetAddon(index int, addonID int64, active bool, qty int) Action {
	return action("set_addon", func(c Cart) (Cart, error) {
		if index < 0 || index >= len(c.Details) {
			return c, ErrLineNotFound
		}
		if qty < 0 {
			return c, ErrInvalidQuantity
		}
		addons := c.Details[index].Addons
		for i := range addons {
			if addons[i].AddonID == addonID {
				addons[i].Active = active
				if qty > 0 {
					addons[i].Quantity = qty
				}
				return c, nil
			}
		}
		return c, ErrAddonNotFound
	})
}

func Remove(index int) Action {
	return action("remove", func(c Cart) (Cart, error) {
		if index < 0 || index >= len(c.Details) {
			return c, ErrLineNotFound
		}
		return removeLine(c, index), nil
	})
}

// Clear empties the cart, keeping only the server cart link.
func Clear() Action {
	return action("clear", func(c Cart) (Cart, error) {
		out := Empty()
		out.ServerID = c.ServerID
		return out, nil
	})
}

// ApplyCoupon attaches cp, validated for shopID, to the cart. It fails if
// the cart now belongs to another shop.
func ApplyCoupon(cp coupon.Coupon, shopID int64) Action {
	return action("apply_coupon", func(c Cart) (Cart, error) {
		if c.IsEmpty() {
			return c, ErrEmpty
		}
		if c.ShopID != shopID {
			return c, ErrShopChanged
		}
		c.Coupon = &cp
		return c, nil
	})
}

func RemoveCoupon() Action {
	return action("remove_coupon", func(c Cart) (Cart, error) {
		c.Coupon = nil
		return c, nil
	})
}

// Unlink forgets the server cart, used on logout.
func Unlink() Action {
	return action("unlink", func(c Cart) (Cart, error) {
		c.ServerID = 0
		return c, nil
	})
}

// Reconcile replaces local lines with the server's copy. Server prices and
// quantities win; local titles and inactive addons are carried over where
// the line still exists.
func Reconcile(server backend.Cart) Action {
	return action("reconcile", func(c Cart) (Cart, error) {
		details := make([]Detail, 0, len(server.Details))
		for _, sd := range server.Details {
			if sd.Quantity < 1 {
				continue
			}
			d := Detail{
				ProductID: sd.ProductID,
				StockID:   sd.StockID,
				Quantity:  sd.Quantity,
				UnitPrice: money.FromFloat(sd.Price),
			}
			for _, e := range sd.Extras {
				d.Extras = append(d.Extras, Extra{GroupID: e.GroupID, OptionIndex: e.OptionIndex})
			}
			for _, a := range sd.Addons {
				d.Addons = append(d.Addons, Addon{AddonID: a.AddonID, Active: true, Quantity: a.Quantity, Price: money.FromFloat(a.Price)})
			}
			if local, ok := findLine(c.Details, sd.ProductID, sd.StockID); ok {
				d.Title = local.Title
				d.Addons = mergeInactive(d.Addons, local.Addons)
			}
			details = append(details, d)
		}

		if len(details) == 0 {
			out := Empty()
			out.ServerID = server.ID
			return out, nil
		}
		if c.ShopID != server.ShopID {
			c.Coupon = nil
		}
		c.ShopID = server.ShopID
		c.ServerID = server.ID
		c.Details = details
		return c, nil
	})
}

func removeLine(c Cart, index int) Cart {
	c.Details = append(c.Details[:index], c.Details[index+1:]...)
	if len(c.Details) == 0 {
		out := Empty()
		out.ServerID = c.ServerID
		return out
	}
	return c
}

func findLine(details []Detail, productID, stockID int64) (Detail, bool) {
	for _, d := range details {
		if d.ProductID == productID && d.StockID == stockID {
			return d, true
		}
	}
	return Detail{}, false
}

func mergeInactive(server, local []Addon) []Addon {
	for _, la := range local {
		if la.Active {
			continue
		}
		found := false
		for _, sa := range server {
			if sa.AddonID == la.AddonID {
				found = true
				break
			}
		}
		if !found {
			server = append(server, la)
		}
	}
	return server
}

// toUpdate renders c as the backend cart payload. Inactive addons are not sent.
func toUpdate(c Cart) backend.CartUpdate {
	upd := backend.CartUpdate{ShopID: c.ShopID, Details: make([]backend.CartDetail, 0, len(c.Details))}
	for _, d := range c.Details {
		bd := backend.CartDetail{
			ProductID: d.ProductID,
			StockID:   d.StockID,
			Quantity:  d.Quantity,
			Price:     d.UnitPrice.InexactFloat64(),
		}
		for _, e := range d.Extras {
			bd.Extras = append(bd.Extras, backend.ExtraRef{GroupID: e.GroupID, OptionIndex: e.OptionIndex})
		}
		for _, a := range d.Addons {
			if a.Active {
				bd.Addons = append(bd.Addons, backend.CartAddon{AddonID: a.AddonID, Quantity: a.Quantity, Price: a.Price.InexactFloat64()})
			}
		}
		upd.Details = append(upd.Details, bd)
	}
	return upd
}

// ToBackendDetails exposes the payload lines for order creation.
func ToBackendDetails(c Cart) []backend.CartDetail {
	return toUpdate(c).Details
}

// Pricing refreshes the shop's delivery fee and tax rate.
func Pricing(shop backend.Shop) Action {
	return action("pricing", func(c Cart) (Cart, error) {
		if c.ShopID != shop.ID {
			return c, nil
		}
		c.DeliveryFee = money.FromFloat(shop.DeliveryFee)
		c.TaxPercent = money.FromFloat(shop.Tax)
		return c, nil
	})
}
