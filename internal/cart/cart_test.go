package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/config"
	"github.com/wichananm65/storefront-gateway/internal/coupon"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(shopID, productID int64, price string, qty int, addons ...Addon) Line {
	return Line{
		ShopID: shopID,
		Detail: Detail{ProductID: productID, StockID: productID * 10, Quantity: qty, UnitPrice: dec(price), Addons: addons},
		Shop:   backend.Shop{ID: shopID, DeliveryFee: 2, Tax: 10},
	}
}

func apply(t *testing.T, c Cart, actions ...Action) Cart {
	t.Helper()
	for _, a := range actions {
		next, err := a.Apply(c)
		require.NoError(t, err, a.Name())
		c = next
	}
	return c
}

func TestCompute_Breakdown(t *testing.T) {
	c := apply(t, Empty(),
		Add(line(1, 1, "3.333", 2, Addon{AddonID: 5, Active: true, Quantity: 2, Price: dec("0.5")}, Addon{AddonID: 6, Active: false, Price: dec("9")}), config.ShopSwitchConfirm, false),
		Add(line(1, 2, "10", 1), config.ShopSwitchConfirm, false),
	)

	tot := Compute(c)
	// (3.333 + 0.5*2) * 2 + 10
	assert.True(t, tot.Subtotal.Equal(dec("18.666")), tot.Subtotal.String())
	assert.True(t, tot.Discount.IsZero())
	assert.True(t, tot.DeliveryFee.Equal(dec("2")))
	assert.True(t, tot.Tax.Equal(dec("1.8666")), tot.Tax.String())
	assert.True(t, tot.Total.Equal(dec("22.5326")), tot.Total.String())

	disp := tot.Display()
	assert.Equal(t, "18.67", disp.Subtotal)
	assert.Equal(t, "1.87", disp.Tax)
	assert.Equal(t, "22.53", disp.Total)
}

func TestCompute_AddonWithZeroQuantityCountsOnce(t *testing.T) {
	c := apply(t, Empty(), Add(line(1, 1, "4", 1, Addon{AddonID: 1, Active: true, Quantity: 0, Price: dec("1.25")}), config.ShopSwitchConfirm, false))
	assert.True(t, Compute(c).Subtotal.Equal(dec("5.25")))
}

func TestCompute_EmptyCartIsZero(t *testing.T) {
	tot := Compute(Empty())
	assert.True(t, tot.Total.IsZero())
	assert.Equal(t, "0.00", tot.Display().DeliveryFee)
}

func TestCompute_SubtotalMatchesLineSumAfterMutations(t *testing.T) {
	c := apply(t, Empty(),
		Add(line(1, 1, "1.111", 3), config.ShopSwitchConfirm, false),
		Add(line(1, 2, "2.5", 1, Addon{AddonID: 9, Active: true, Quantity: 1, Price: dec("0.75")}), config.ShopSwitchConfirm, false),
		Increment(1),
		SetAddon(1, 9, false, 0),
		Decrement(0),
		SetQuantity(0, 5),
	)
	sum := decimal.Zero
	for _, d := range c.Details {
		sum = sum.Add(d.LineTotal())
	}
	assert.True(t, Compute(c).Subtotal.Equal(sum))
	assert.True(t, sum.Equal(dec("10.555")), sum.String())
}

func TestAdd_MergesIdenticalLine(t *testing.T) {
	c := apply(t, Empty(),
		Add(line(1, 1, "5", 1), config.ShopSwitchConfirm, false),
		Add(line(1, 1, "5", 2), config.ShopSwitchConfirm, false),
	)
	require.Len(t, c.Details, 1)
	assert.Equal(t, 3, c.Details[0].Quantity)
}

func TestAdd_ShopSwitchPolicies(t *testing.T) {
	start := apply(t, Empty(), Add(line(1, 1, "5", 1), config.ShopSwitchConfirm, false))

	_, err := Add(line(2, 7, "1", 1), config.ShopSwitchConfirm, false).Apply(start)
	assert.ErrorIs(t, err, ErrDifferentShop)

	_, err = Add(line(2, 7, "1", 1), config.ShopSwitchReject, true).Apply(start)
	assert.ErrorIs(t, err, ErrDifferentShop)

	replaced, err := Add(line(2, 7, "1", 1), config.ShopSwitchConfirm, true).Apply(start)
	require.NoError(t, err)
	assert.Equal(t, int64(2), replaced.ShopID)
	require.Len(t, replaced.Details, 1)
	assert.Equal(t, int64(7), replaced.Details[0].ProductID)

	silent, err := Add(line(2, 7, "1", 1), config.ShopSwitchReplace, false).Apply(start)
	require.NoError(t, err)
	assert.Equal(t, int64(2), silent.ShopID)
}

func TestDecrement_LastUnitRemovesLine(t *testing.T) {
	c := apply(t, Empty(),
		Add(line(1, 1, "5", 1), config.ShopSwitchConfirm, false),
		Add(line(1, 2, "5", 2), config.ShopSwitchConfirm, false),
		Decrement(0),
	)
	require.Len(t, c.Details, 1)
	assert.Equal(t, int64(2), c.Details[0].ProductID)

	c = apply(t, c, Decrement(0), Decrement(0))
	assert.True(t, c.IsEmpty())
	assert.Equal(t, int64(0), c.ShopID)
}

func TestActions_DoNotMutateInput(t *testing.T) {
	c := apply(t, Empty(), Add(line(1, 1, "5", 2), config.ShopSwitchConfirm, false))
	_ = apply(t, c, Increment(0), SetQuantity(0, 9))
	assert.Equal(t, 2, c.Details[0].Quantity)
}

func TestActions_Errors(t *testing.T) {
	c := apply(t, Empty(), Add(line(1, 1, "5", 1), config.ShopSwitchConfirm, false))

	_, err := SetQuantity(3, 1).Apply(c)
	assert.ErrorIs(t, err, ErrLineNotFound)
	_, err = SetQuantity(0, -1).Apply(c)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = SetAddon(0, 99, true, 1).Apply(c)
	assert.ErrorIs(t, err, ErrAddonNotFound)
	_, err = ApplyCoupon(coupon.Coupon{Code: "X"}, 0).Apply(Empty())
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestCoupon_DiscountClampedAndTaxOnDiscounted(t *testing.T) {
	c := apply(t, Empty(),
		Add(line(1, 1, "8", 1), config.ShopSwitchConfirm, false),
		ApplyCoupon(coupon.Coupon{Code: "BIG", Kind: coupon.Fixed, Value: dec("20")}, 1),
	)
	tot := Compute(c)
	assert.True(t, tot.Discount.Equal(dec("8")))
	assert.True(t, tot.Tax.IsZero())
	assert.True(t, tot.Total.Equal(dec("2")))

	c = apply(t, c, RemoveCoupon())
	assert.True(t, Compute(c).Total.Equal(dec("10.8")))
}

func TestReconcile_ServerWins(t *testing.T) {
	c := apply(t, Empty(), Add(line(1, 1, "5", 1, Addon{AddonID: 3, Active: false, Price: dec("1")}), config.ShopSwitchConfirm, false))
	c.Details[0].Title = "Croissant"

	srv := backend.Cart{ID: 55, ShopID: 1, Details: []backend.CartDetail{
		{ProductID: 1, StockID: 10, Quantity: 4, Price: 4.5},
		{ProductID: 2, StockID: 20, Quantity: 0, Price: 1},
	}}
	got := apply(t, c, Reconcile(srv))

	require.Len(t, got.Details, 1)
	assert.Equal(t, 4, got.Details[0].Quantity)
	assert.True(t, got.Details[0].UnitPrice.Equal(dec("4.5")))
	assert.Equal(t, "Croissant", got.Details[0].Title)
	assert.Len(t, got.Details[0].Addons, 1)
	assert.Equal(t, int64(55), got.ServerID)
	assert.True(t, got.DeliveryFee.Equal(dec("2")))
}

func TestReconcile_EmptyServerCartEmptiesLocal(t *testing.T) {
	c := apply(t, Empty(), Add(line(1, 1, "5", 1), config.ShopSwitchConfirm, false))
	got := apply(t, c, Reconcile(backend.Cart{ID: 8}))
	assert.True(t, got.IsEmpty())
	assert.Equal(t, int64(8), got.ServerID)
}

func TestToBackendDetails_SkipsInactiveAddons(t *testing.T) {
	c := apply(t, Empty(), Add(line(1, 1, "5", 1,
		Addon{AddonID: 3, Active: false, Price: dec("1")},
		Addon{AddonID: 4, Active: true, Quantity: 2, Price: dec("1.5")},
	), config.ShopSwitchConfirm, false))

	got := ToBackendDetails(c)
	require.Len(t, got, 1)
	require.Len(t, got[0].Addons, 1)
	assert.Equal(t, int64(4), got[0].Addons[0].AddonID)
}

func TestApplyCoupon_RejectsCouponForPreviousShop(t *testing.T) {
	c := apply(t, Empty(), Add(line(1, 1, "8", 1), config.ShopSwitchConfirm, false))
	switched := apply(t, c, Add(line(2, 7, "3", 1), config.ShopSwitchReplace, false))

	_, err := ApplyCoupon(coupon.Coupon{Code: "SHOP1", Kind: coupon.Fixed, Value: dec("2")}, 1).Apply(switched)
	assert.ErrorIs(t, err, ErrShopChanged)

	got := apply(t, switched, ApplyCoupon(coupon.Coupon{Code: "SHOP2", Kind: coupon.Fixed, Value: dec("2")}, 2))
	require.NotNil(t, got.Coupon)
	assert.Equal(t, "SHOP2", got.Coupon.Code)
}
