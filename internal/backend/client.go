// Package backend is the client of the marketplace REST API. It is the
// system of record for shops, products, carts, orders, coupons and payments.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/wichananm65/storefront-gateway/internal/errs"
	"github.com/wichananm65/storefront-gateway/internal/metrics"
)

var ErrUnavailable = errors.New("backend unavailable")

// APIError is a response the backend answered with status=false or a
// non-2xx code.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend: status %d: %s", e.StatusCode, e.Message)
}

// CallError tags any failure of a backend call with its endpoint.
type CallError struct {
	Endpoint string
	Err      error
}

func (e *CallError) Error() string { return e.Endpoint + ": " + e.Err.Error() }

func (e *CallError) Unwrap() error { return e.Err }

// MessageOf returns the backend's explanation carried by err, if any.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Scope carries the per-call caller context: bearer token and locale.
type Scope struct {
	Token string
	Lang  string
}

// Config holds backend client configuration.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type rawResponse struct {
	status int
	body   []byte
}

// Client calls the marketplace backend through a circuit breaker.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[rawResponse]
}

// New creates a backend client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("backend base URL: %w", err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	breaker := gobreaker.NewCircuitBreaker[rawResponse](gobreaker.Settings{
		Name:        "marketplace-backend",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     20 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: hc,
		breaker:    breaker,
	}, nil
}

// do sends one request. Transport failures and 5xx answers count against
// the breaker; anything else is handed back for envelope decoding.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, sc Scope, body any) (rawResponse, error) {
	if query == nil {
		query = url.Values{}
	}
	if sc.Lang != "" && query.Get("lang") == "" {
		query.Set("lang", sc.Lang)
	}
	u := c.baseURL + path
	if enc := query.Encode(); enc != "" {
		u += "?" + enc
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return rawResponse{}, fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	res, err := c.breaker.Execute(func() (rawResponse, error) {
		var rdr io.Reader
		if payload != nil {
			rdr = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rdr)
		if err != nil {
			return rawResponse{}, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if sc.Token != "" {
			req.Header.Set("Authorization", "Bearer "+sc.Token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return rawResponse{}, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return rawResponse{}, err
		}
		out := rawResponse{status: resp.StatusCode, body: b}
		if resp.StatusCode >= http.StatusInternalServerError {
			return out, &APIError{StatusCode: resp.StatusCode, Message: envelopeMessage(b)}
		}
		return out, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return rawResponse{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res, err
}

func call[T any](ctx context.Context, c *Client, endpoint, method, path string, query url.Values, sc Scope, body any) (Envelope[T], error) {
	var env Envelope[T]
	res, err := c.do(ctx, method, path, query, sc, body)
	if err != nil {
		metrics.ObserveBackend(endpoint, err)
		return env, &CallError{Endpoint: endpoint, Err: err}
	}

	if err := json.Unmarshal(res.body, &env); err != nil {
		if res.status >= 300 {
			err = &APIError{StatusCode: res.status}
		} else {
			err = fmt.Errorf("decode response: %w", err)
		}
		metrics.ObserveBackend(endpoint, err)
		return env, &CallError{Endpoint: endpoint, Err: err}
	}
	if res.status >= 300 || !env.Status {
		err := &APIError{StatusCode: res.status, Message: env.Message}
		metrics.ObserveBackend(endpoint, err)
		return env, &CallError{Endpoint: endpoint, Err: err}
	}
	metrics.ObserveBackend(endpoint, nil)
	return env, nil
}

func envelopeMessage(b []byte) string {
	var env struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(b, &env)
	return env.Message
}

// ListQuery is the common pagination/filter set of list endpoints.
type ListQuery struct {
	Page    int
	PerPage int
	Extra   url.Values
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	for k, vals := range q.Extra {
		for _, s := range vals {
			v.Add(k, s)
		}
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("perPage", strconv.Itoa(q.PerPage))
	}
	return v
}

func (c *Client) Shops(ctx context.Context, sc Scope, q ListQuery) (Page, error) {
	return call[json.RawMessage](ctx, c, "shops", http.MethodGet, "/rest/shops/paginate", q.values(), sc, nil)
}

func (c *Client) NearbyShops(ctx context.Context, sc Scope, lat, lng float64, q ListQuery) (Page, error) {
	v := q.values()
	v.Set("address[latitude]", strconv.FormatFloat(lat, 'f', -1, 64))
	v.Set("address[longitude]", strconv.FormatFloat(lng, 'f', -1, 64))
	return call[json.RawMessage](ctx, c, "shops_nearby", http.MethodGet, "/rest/shops/nearby", v, sc, nil)
}

func (c *Client) ShopCategories(ctx context.Context, sc Scope, q ListQuery) (Page, error) {
	v := q.values()
	v.Set("type", "shop")
	return call[json.RawMessage](ctx, c, "shop_categories", http.MethodGet, "/rest/categories/paginate", v, sc, nil)
}

func (c *Client) Shop(ctx context.Context, sc Scope, id int64) (Shop, error) {
	env, err := call[Shop](ctx, c, "shop", http.MethodGet, "/rest/shops/"+strconv.FormatInt(id, 10), nil, sc, nil)
	return env.Data, err
}

func (c *Client) Products(ctx context.Context, sc Scope, q ListQuery) (Page, error) {
	return call[json.RawMessage](ctx, c, "products", http.MethodGet, "/rest/products/paginate", q.values(), sc, nil)
}

func (c *Client) ProductsByIDs(ctx context.Context, sc Scope, ids []int64) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	v := url.Values{}
	for _, id := range ids {
		v.Add("products[]", strconv.FormatInt(id, 10))
	}
	env, err := call[[]Product](ctx, c, "products_by_ids", http.MethodGet, "/rest/products/ids", v, sc, nil)
	return env.Data, err
}

func (c *Client) GetCart(ctx context.Context, sc Scope, shopID int64) (Cart, error) {
	v := url.Values{}
	if shopID > 0 {
		v.Set("shop_id", strconv.FormatInt(shopID, 10))
	}
	env, err := call[Cart](ctx, c, "cart_get", http.MethodGet, "/dashboard/user/cart", v, sc, nil)
	return env.Data, err
}

func (c *Client) UpdateCart(ctx context.Context, sc Scope, upd CartUpdate) (Cart, error) {
	env, err := call[Cart](ctx, c, "cart_update", http.MethodPost, "/dashboard/user/cart/insert-product", nil, sc, upd)
	return env.Data, err
}

func (c *Client) CreateOrder(ctx context.Context, sc Scope, req CreateOrderRequest) (CreatedOrder, error) {
	env, err := call[CreatedOrder](ctx, c, "order_create", http.MethodPost, "/dashboard/user/orders", nil, sc, req)
	return env.Data, err
}

func (c *Client) Orders(ctx context.Context, sc Scope, q ListQuery) (Page, error) {
	return call[json.RawMessage](ctx, c, "orders", http.MethodGet, "/dashboard/user/orders/paginate", q.values(), sc, nil)
}

func (c *Client) OrderDetails(ctx context.Context, sc Scope, id string) (Order, error) {
	env, err := call[Order](ctx, c, "order_details", http.MethodGet, "/dashboard/user/orders/"+url.PathEscape(id), nil, sc, nil)
	return env.Data, err
}

func (c *Client) CheckCoupon(ctx context.Context, sc Scope, code string, shopID int64) (CouponCheck, error) {
	body := map[string]any{"coupon": code, "shop_id": shopID}
	env, err := call[CouponCheck](ctx, c, "coupon_check", http.MethodPost, "/rest/coupons/check", nil, sc, body)
	return env.Data, err
}

func (c *Client) ProcessPaymentResult(ctx context.Context, sc Scope, req PaymentResultRequest) (PaymentResult, error) {
	env, err := call[PaymentResult](ctx, c, "payment_result", http.MethodPost, "/rest/payments/process-result", nil, sc, req)
	if err == nil && env.Data.Message == "" {
		env.Data.Message = env.Message
	}
	return env.Data, err
}

func (c *Client) Addresses(ctx context.Context, sc Scope) ([]json.RawMessage, error) {
	env, err := call[[]json.RawMessage](ctx, c, "addresses", http.MethodGet, "/dashboard/user/addresses", nil, sc, nil)
	return env.Data, err
}

// AsError maps a failed backend call onto the storefront error envelope,
// keeping the backend's message when it sent one.
func AsError(err error) *errs.Error {
	var callErr *CallError
	if !errors.As(err, &callErr) {
		var e *errs.Error
		if errors.As(err, &e) {
			return e
		}
		return errs.New(errs.Internal, "")
	}
	if errors.Is(err, ErrUnavailable) {
		return errs.New(errs.ServiceUnavailable, "")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			return errs.New(errs.Unauthenticated, apiErr.Message)
		case http.StatusNotFound:
			return errs.New(errs.NotFound, apiErr.Message)
		}
	}
	return errs.New(errs.Upstream, MessageOf(err))
}
