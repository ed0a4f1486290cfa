package catalog

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-gateway/internal/address"
	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/device"
	"github.com/wichananm65/storefront-gateway/internal/errs"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/shops", h.getShops)
	app.Get("/api/v1/shops/nearby", h.getNearbyShops)
	app.Get("/api/v1/shops/categories", h.getShopCategories)
	app.Get("/api/v1/products", h.getProducts)
	app.Get("/api/v1/products/by-ids", h.getProductsByIDs)
}

// listQuery forwards the request's query string, lifting out paging.
func listQuery(c *fiber.Ctx, skip ...string) backend.ListQuery {
	q := backend.ListQuery{Extra: url.Values{}}
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		key := string(k)
		switch key {
		case "page":
			q.Page, _ = strconv.Atoi(string(v))
		case "perPage", "per_page":
			q.PerPage, _ = strconv.Atoi(string(v))
		default:
			for _, s := range skip {
				if s == key {
					return
				}
			}
			q.Extra.Add(key, string(v))
		}
	})
	return q
}

func (h *Handler) getShops(c *fiber.Ctx) error {
	page, err := h.service.Shops(c.UserContext(), device.ID(c), listQuery(c))
	if err != nil {
		return errs.Respond(c, backend.AsError(err))
	}
	return c.JSON(page)
}

func (h *Handler) getNearbyShops(c *fiber.Ctx) error {
	var loc *address.Location
	if c.Query("lat") != "" || c.Query("lng") != "" {
		lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
		lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
		if err1 != nil || err2 != nil {
			return errs.Respond(c, errs.New(errs.InvalidArgument, "lat and lng must be numbers"))
		}
		loc = &address.Location{Latitude: lat, Longitude: lng}
	}

	page, err := h.service.NearbyShops(c.UserContext(), device.ID(c), loc, listQuery(c, "lat", "lng"))
	if err != nil {
		if errors.Is(err, ErrNoLocation) {
			return errs.Respond(c, errs.New(errs.InvalidArgument, "choose a delivery location first"))
		}
		return errs.Respond(c, backend.AsError(err))
	}
	return c.JSON(page)
}

func (h *Handler) getShopCategories(c *fiber.Ctx) error {
	page, err := h.service.ShopCategories(c.UserContext(), device.ID(c), listQuery(c))
	if err != nil {
		return errs.Respond(c, backend.AsError(err))
	}
	return c.JSON(page)
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	page, err := h.service.Products(c.UserContext(), device.ID(c), listQuery(c))
	if err != nil {
		return errs.Respond(c, backend.AsError(err))
	}
	return c.JSON(page)
}

func (h *Handler) getProductsByIDs(c *fiber.Ctx) error {
	var ids []int64
	for _, part := range strings.Split(c.Query("ids"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return errs.Respond(c, errs.New(errs.InvalidArgument, "invalid product id "+part))
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return errs.Respond(c, errs.New(errs.InvalidArgument, "ids is required"))
	}

	products, err := h.service.ProductsByIDs(c.UserContext(), device.ID(c), ids)
	if err != nil {
		return errs.Respond(c, backend.AsError(err))
	}
	return c.JSON(backend.Envelope[[]backend.Product]{Status: true, Data: products})
}
