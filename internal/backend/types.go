package backend

import "encoding/json"

// Meta is the pagination block of list responses.
type Meta struct {
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
	CurrentPage int `json:"current_page,omitempty"`
	PerPage     int `json:"per_page,omitempty"`
}

// Envelope is the shape of every backend response.
type Envelope[T any] struct {
	Status  bool   `json:"status"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Shop carries the fields the storefront prices with.
type Shop struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	DeliveryFee float64 `json:"delivery_fee"`
	Tax         float64 `json:"tax"`
	MinAmount   float64 `json:"min_amount"`
	Open        bool    `json:"open"`
}

type ExtraRef struct {
	GroupID     int64 `json:"group_id"`
	OptionIndex int   `json:"option_index"`
}

type Stock struct {
	ID       int64      `json:"id"`
	Price    float64    `json:"price"`
	Quantity int        `json:"quantity"`
	Extras   []ExtraRef `json:"extras,omitempty"`
}

type Addon struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

type Product struct {
	ID     int64   `json:"id"`
	ShopID int64   `json:"shop_id"`
	Title  string  `json:"title"`
	Stocks []Stock `json:"stocks"`
	Addons []Addon `json:"addons,omitempty"`
}

type CartAddon struct {
	AddonID  int64   `json:"addon_id"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type CartDetail struct {
	ProductID int64       `json:"product_id"`
	StockID   int64       `json:"stock_id"`
	Quantity  int         `json:"quantity"`
	Price     float64     `json:"price"`
	Extras    []ExtraRef  `json:"extras,omitempty"`
	Addons    []CartAddon `json:"addons,omitempty"`
}

// Cart is the server copy of a user's cart.
type Cart struct {
	ID         int64        `json:"id"`
	ShopID     int64        `json:"shop_id"`
	TotalPrice float64      `json:"total_price"`
	Details    []CartDetail `json:"details"`
}

type CartUpdate struct {
	ShopID  int64        `json:"shop_id"`
	Details []CartDetail `json:"details"`
}

type CreateOrderRequest struct {
	ShopID        int64        `json:"shop_id"`
	AddressID     int64        `json:"address_id,omitempty"`
	DeliveryType  string       `json:"delivery_type"`
	PaymentMethod string       `json:"payment_method"`
	CouponCode    string       `json:"coupon,omitempty"`
	Note          string       `json:"note,omitempty"`
	Details       []CartDetail `json:"details"`
	Subtotal      string       `json:"subtotal"`
	Discount      string       `json:"discount"`
	DeliveryFee   string       `json:"delivery_fee"`
	Tax           string       `json:"tax"`
	Total         string       `json:"total"`
}

// CreatedOrder is returned by order creation. PaymentURL is set when the
// customer must be sent to an external payment gateway.
type CreatedOrder struct {
	ID         int64  `json:"id"`
	Status     string `json:"status"`
	PaymentURL string `json:"payment_url,omitempty"`
}

type Transaction struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type Order struct {
	ID          int64        `json:"id"`
	Status      string       `json:"status"`
	TotalPrice  float64      `json:"total_price"`
	Transaction *Transaction `json:"transaction,omitempty"`
	CreatedAt   string       `json:"created_at,omitempty"`
}

type CouponCheck struct {
	Code      string  `json:"name"`
	Type      string  `json:"type"`
	Price     float64 `json:"price"`
	ExpiredAt string  `json:"expired_at,omitempty"`
}

type PaymentResultRequest struct {
	OrderID         string `json:"order_id,omitempty"`
	SessionID       string `json:"session_id,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
}

type PaymentResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	OrderID string `json:"order_id,omitempty"`
}

// Page is a raw list passthrough used by catalog proxies.
type Page = Envelope[json.RawMessage]
