package auth

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/cart"
	"github.com/wichananm65/storefront-gateway/internal/config"
	"github.com/wichananm65/storefront-gateway/internal/device"
	"github.com/wichananm65/storefront-gateway/internal/state"
	"github.com/wichananm65/storefront-gateway/internal/storage"
)

const testDevice = "5e6f7a8b-9c0d-4e1f-8a2b-3c4d5e6f7a8b"

type memStores struct {
	st    storage.Storage
	auth  *state.Store[Session]
	carts *state.Store[cart.Cart]
}

func newMemStores(t *testing.T) *memStores {
	st := storage.NewInMemoryStorage()
	m := &memStores{
		st:    st,
		auth:  state.New(st, testDevice, storage.KeyAuth, Anonymous),
		carts: state.New(st, testDevice, storage.KeyCart, cart.Empty),
	}
	require.NoError(t, m.auth.Hydrate(context.Background()))
	require.NoError(t, m.carts.Hydrate(context.Background()))
	return m
}

func (m *memStores) Auth(ctx context.Context, deviceID string) (*state.Store[Session], error) {
	return m.auth, nil
}

func (m *memStores) Cart(ctx context.Context, deviceID string) (*state.Store[cart.Cart], error) {
	return m.carts, nil
}

func backendCart() backend.Cart {
	return backend.Cart{ID: 99, ShopID: 1, Details: []backend.CartDetail{{ProductID: 1, StockID: 1, Quantity: 1, Price: 2}}}
}

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestParser_VerifiesWithSecret(t *testing.T) {
	p := NewParser("s3cret")
	good := sign(t, "s3cret", jwt.MapClaims{"user_id": 7})
	_, claims, err := p.Parse(good)
	require.NoError(t, err)
	id, ok := userIDFromClaims(claims)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	_, _, err = p.Parse(sign(t, "other", jwt.MapClaims{"user_id": 7}))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParser_UnverifiedStillRejectsExpired(t *testing.T) {
	p := NewParser("")
	_, _, err := p.Parse(sign(t, "any", jwt.MapClaims{"user_id": 1, "exp": time.Now().Add(-time.Minute).Unix()}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = p.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_SignInOutLifecycle(t *testing.T) {
	ctx := context.Background()
	stores := newMemStores(t)
	svc := NewService(stores, NewParser(""), config.Firebase{})

	st, err := svc.Status(ctx, testDevice)
	require.NoError(t, err)
	assert.True(t, st.Hydrated)
	assert.False(t, st.IsAuthenticated)

	_, err = stores.carts.Dispatch(ctx, cart.Reconcile(backendCart()))
	require.NoError(t, err)

	exp := time.Now().Add(time.Hour).Unix()
	st, err = svc.SignIn(ctx, testDevice, sign(t, "x", jwt.MapClaims{"user_id": "12", "exp": exp}), nil)
	require.NoError(t, err)
	assert.True(t, st.IsAuthenticated)
	require.NotNil(t, st.User)
	assert.Equal(t, int64(12), st.User.ID)

	tok, err := svc.Token(ctx, testDevice)
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	require.NoError(t, svc.SignOut(ctx, testDevice))
	tok, _ = svc.Token(ctx, testDevice)
	assert.Empty(t, tok)
	c, _ := stores.carts.State()
	assert.Zero(t, c.ServerID)
}

func TestService_ExpiredSessionIsGuest(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStores(t), NewParser(""), config.Firebase{})
	_, err := svc.SignIn(ctx, testDevice, sign(t, "x", jwt.MapClaims{"user_id": 3, "exp": time.Now().Add(time.Minute).Unix()}), nil)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	st, _ := svc.Status(ctx, testDevice)
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.User)
}

func TestProviders_IncompleteFirebaseDisablesSocial(t *testing.T) {
	svc := NewService(newMemStores(t), NewParser(""), config.Firebase{APIKey: "k"})
	p := svc.Providers()
	for _, pr := range p.Providers {
		assert.False(t, pr.Enabled, pr.Name)
	}
	assert.Contains(t, p.Missing, "FIREBASE_PROJECT_ID")

	full := config.Firebase{APIKey: "k", AuthDomain: "d", ProjectID: "p", AppID: "a"}
	svc = NewService(newMemStores(t), NewParser(""), full)
	assert.True(t, svc.Providers().Providers[0].Enabled)
}

func TestHandler_SessionAndGuard(t *testing.T) {
	stores := newMemStores(t)
	svc := NewService(stores, NewParser(""), config.Firebase{})
	app := fiber.New()
	app.Use(device.Middleware)
	NewHandler(svc).RegisterPublicRoutes(app)
	app.Use(SessionBearer(svc))
	app.Use(RequireSession(NewParser("")))
	app.Get("/api/v1/orders", func(c *fiber.Ctx) error {
		id, err := UserIDFromCtx(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"userId": id, "token": TokenFromCtx(c) != ""})
	})

	call := func(method, path, body string) (int, string) {
		var rdr io.Reader
		if body != "" {
			rdr = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, rdr)
		req.Header.Set(device.HeaderName, testDevice)
		req.Header.Set("Content-Type", "application/json")
		res, err := app.Test(req)
		require.NoError(t, err)
		b, _ := io.ReadAll(res.Body)
		return res.StatusCode, string(b)
	}

	code, _ := call("GET", "/api/v1/orders", "")
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, body := call("POST", "/api/v1/auth/session", `{"token":"nope"}`)
	assert.Equal(t, fiber.StatusUnauthorized, code, body)

	tok := sign(t, "x", jwt.MapClaims{"user_id": 42})
	code, body = call("POST", "/api/v1/auth/session", `{"token":"`+tok+`","user":{"firstname":"Sara"}}`)
	require.Equal(t, fiber.StatusOK, code, body)
	assert.Contains(t, body, `"isAuthenticated":true`)

	code, body = call("GET", "/api/v1/orders", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"userId":42,"token":true}`, body)

	code, _ = call("DELETE", "/api/v1/auth/session", "")
	assert.Equal(t, fiber.StatusNoContent, code)
	code, body = call("GET", "/api/v1/auth/session", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, `"isAuthenticated":false`)
}
