package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_backend_requests_total",
			Help: "Calls made to the marketplace backend",
		},
		[]string{"endpoint", "result"},
	)

	CartMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Cart actions applied per kind",
		},
		[]string{"action", "result"},
	)

	CouponApplicationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_coupon_applications_total",
			Help: "Coupon application attempts",
		},
		[]string{"result"},
	)

	PaymentResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_payment_resolutions_total",
			Help: "Payment result resolutions by outcome and deciding rule",
		},
		[]string{"outcome", "rule"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		BackendRequestsTotal,
		CartMutationsTotal,
		CouponApplicationsTotal,
		PaymentResolutionsTotal,
	)
}

// Middleware records request count and latency labelled by matched route.
func Middleware(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	route := c.Route().Path
	status := c.Response().StatusCode()
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}
	HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
	HTTPRequestDurationSeconds.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
	return err
}

// ObserveBackend records the result of one backend call.
func ObserveBackend(endpoint string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	BackendRequestsTotal.WithLabelValues(endpoint, result).Inc()
}
