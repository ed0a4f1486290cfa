package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/device"
	"github.com/wichananm65/storefront-gateway/internal/settings"
	"github.com/wichananm65/storefront-gateway/internal/storage"
)

const testDevice = "5f0c2a52-9b1e-4a8e-9a53-2f4a3f6d8e11"

type scopeStub struct{}

func (scopeStub) Scope(ctx context.Context, deviceID string) (backend.Scope, error) {
	return backend.Scope{Lang: "ar"}, nil
}

func makeAppWithPaymentHandler(be Backend, carts CartClearer) (*fiber.App, *Markers) {
	markers := NewMarkers(storage.NewInMemoryStorage(), time.Hour)
	h := NewHandler(NewResolver(be, markers, carts), markers, scopeStub{}, settings.NewLocales("ar", []string{"ar", "en"}), 3)
	app := fiber.New()
	app.Use(device.Middleware)
	h.RegisterPublicRoutes(app)
	return app, markers
}

func TestRedirects(t *testing.T) {
	app, _ := makeAppWithPaymentHandler(&fakeBackend{}, &fakeCarts{})

	cases := []struct {
		name     string
		method   string
		path     string
		body     string
		ctype    string
		cookie   string
		location string
	}{
		{
			name:     "callback get with locale cookie",
			method:   "GET",
			path:     "/api/payment/callback?o_id=42&status=paid",
			cookie:   "en",
			location: "/en/payment/result?order_id=42&status=success",
		},
		{
			name:     "success without status defaults locale",
			method:   "GET",
			path:     "/api/payment/success?orderId=42&session_id=cs_1",
			location: "/ar/payment/result?order_id=42&session_id=cs_1",
		},
		{
			name:     "cancel defaults to cancelled",
			method:   "GET",
			path:     "/api/payment/cancel?order_id=9",
			location: "/ar/payment/result?order_id=9&status=cancelled",
		},
		{
			name:     "form post with error",
			method:   "POST",
			path:     "/api/payment/callback",
			body:     "order_id=9&error=declined",
			ctype:    fiber.MIMEApplicationForm,
			location: "/ar/payment/result?order_id=9&status=failed",
		},
		{
			name:     "json post with numeric id",
			method:   "POST",
			path:     "/api/payment/callback",
			body:     `{"orderId": 77, "payment_intent_id": "pi_3"}`,
			ctype:    fiber.MIMEApplicationJSON,
			location: "/ar/payment/result?order_id=77&payment_intent_id=pi_3",
		},
		{
			name:     "nothing at all",
			method:   "GET",
			path:     "/api/payment/callback",
			location: "/ar/payment/result",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.ctype != "" {
				req.Header.Set("Content-Type", tc.ctype)
			}
			if tc.cookie != "" {
				req.Header.Set("Cookie", settings.LocaleCookie+"="+tc.cookie)
			}
			res, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusSeeOther, res.StatusCode)
			assert.Equal(t, tc.location, res.Header.Get("Location"))
		})
	}
}

func TestResultEndpoint(t *testing.T) {
	carts := &fakeCarts{}
	app, _ := makeAppWithPaymentHandler(&fakeBackend{}, carts)

	req := httptest.NewRequest("GET", "/api/v1/payment/result?status=success&order_id=42", nil)
	req.Header.Set(device.HeaderName, testDevice)
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var body map[string]any
	b, _ := io.ReadAll(res.Body)
	require.NoError(t, json.Unmarshal(b, &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "42", body["orderId"])
	assert.Equal(t, "/orders/42", body["redirectTo"])
	assert.Equal(t, float64(3), body["countdown"])
	assert.Equal(t, []string{testDevice}, carts.cleared)

	req = httptest.NewRequest("GET", "/api/v1/payment/result", nil)
	req.Header.Set(device.HeaderName, testDevice)
	res, _ = app.Test(req)
	b, _ = io.ReadAll(res.Body)
	assert.Contains(t, string(b), `"status":"failed"`)
	assert.Contains(t, string(b), GenericMessage)
}

func TestPendingEndpointFeedsResolution(t *testing.T) {
	be := &fakeBackend{order: backend.Order{ID: 7, Status: "new", Transaction: &backend.Transaction{Status: "paid"}}}
	carts := &fakeCarts{}
	app, _ := makeAppWithPaymentHandler(be, carts)

	req := httptest.NewRequest("POST", "/api/v1/payment/pending", strings.NewReader(`{"orderId":7}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(device.HeaderName, testDevice)
	res, _ := app.Test(req)
	require.Equal(t, fiber.StatusNoContent, res.StatusCode)

	req = httptest.NewRequest("GET", "/api/v1/payment/result", nil)
	req.Header.Set(device.HeaderName, testDevice)
	res, _ = app.Test(req)
	b, _ := io.ReadAll(res.Body)
	assert.Contains(t, string(b), `"status":"success"`)
	assert.Contains(t, string(b), `"rule":"order-status"`)
	assert.Len(t, carts.cleared, 1)

	req = httptest.NewRequest("POST", "/api/v1/payment/pending", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}
