package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestShop_DecodesEnvelopeAndSendsScope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/shops/9", r.URL.Path)
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":true,"data":{"id":9,"title":"Bakery","delivery_fee":1.5,"tax":5}}`))
	})

	shop, err := c.Shop(context.Background(), Scope{Token: "tok", Lang: "en"}, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), shop.ID)
	assert.Equal(t, 1.5, shop.DeliveryFee)
	assert.Equal(t, 5.0, shop.Tax)
}

func TestCall_StatusFalseBecomesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":false,"message":"Coupon expired"}`))
	})

	_, err := c.CheckCoupon(context.Background(), Scope{}, "SAVE", 1)
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Coupon expired", MessageOf(err))
}

func TestCall_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":false,"message":"Order not found"}`))
	})

	_, err := c.OrderDetails(context.Background(), Scope{}, "77")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestCall_BreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_, err := c.Shop(context.Background(), Scope{}, 1)
		require.Error(t, err)
	}
	_, err := c.Shop(context.Background(), Scope{}, 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))
}

func TestCall_ClientErrorsDoNotTripBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"status":false,"message":"bad"}`))
	})

	for i := 0; i < 8; i++ {
		_, err := c.Shop(context.Background(), Scope{}, 1)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
}

func TestProductsByIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"1", "2"}, r.URL.Query()["products[]"])
		_, _ = w.Write([]byte(`{"status":true,"data":[{"id":1,"shop_id":3,"stocks":[{"id":10,"price":2.5}]},{"id":2,"shop_id":3}]}`))
	})

	got, err := c.ProductsByIDs(context.Background(), Scope{}, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2.5, got[0].Stocks[0].Price)

	empty, err := c.ProductsByIDs(context.Background(), Scope{}, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestShops_PassesMeta(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"status":true,"data":[{"id":1}],"meta":{"total":11,"last_page":2}}`))
	})

	page, err := c.Shops(context.Background(), Scope{}, ListQuery{Page: 2})
	require.NoError(t, err)
	require.NotNil(t, page.Meta)
	assert.Equal(t, 11, page.Meta.Total)
	assert.JSONEq(t, `[{"id":1}]`, string(page.Data))
}

func TestUpdateCart_SendsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var upd CartUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&upd))
		assert.Equal(t, int64(4), upd.ShopID)
		_, _ = w.Write([]byte(`{"status":true,"data":{"id":1,"shop_id":4,"details":[{"product_id":1,"stock_id":2,"quantity":3,"price":1}]}}`))
	})

	cart, err := c.UpdateCart(context.Background(), Scope{Token: "t"}, CartUpdate{ShopID: 4})
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Details[0].Quantity)
}

func TestProcessPaymentResult_FallsBackToEnvelopeMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":true,"message":"Payment received","data":{"status":"success"}}`))
	})

	res, err := c.ProcessPaymentResult(context.Background(), Scope{}, PaymentResultRequest{SessionID: "cs_1"})
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "Payment received", res.Message)
}
