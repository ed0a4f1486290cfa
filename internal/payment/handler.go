package payment

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/storefront-gateway/internal/auth"
	"github.com/wichananm65/storefront-gateway/internal/device"
	"github.com/wichananm65/storefront-gateway/internal/errs"
	"github.com/wichananm65/storefront-gateway/internal/settings"
)

type Handler struct {
	resolver  *Resolver
	markers   *Markers
	scopes    auth.ScopeSource
	locales   *settings.Locales
	countdown int
	tick      time.Duration
}

func NewHandler(r *Resolver, m *Markers, scopes auth.ScopeSource, locales *settings.Locales, countdown int) *Handler {
	return &Handler{
		resolver:  r,
		markers:   m,
		scopes:    scopes,
		locales:   locales,
		countdown: countdown,
		tick:      time.Second,
	}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	for path, fallback := range map[string]Outcome{
		"/api/payment/callback": "",
		"/api/payment/success":  "",
		"/api/payment/cancel":   Cancelled,
	} {
		app.Get(path, h.redirect(fallback))
		app.Post(path, h.redirect(fallback))
	}

	app.Get("/api/v1/payment/result", h.result)
	app.Get("/api/v1/payment/result/stream", h.stream)
	app.Post("/api/v1/payment/pending", h.pending)
}

// redirect forwards a gateway callback to the localized result page.
// fallback is the status assumed when the gateway sent none.
func (h *Handler) redirect(fallback Outcome) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := ParseParams(c)
		if o, ok := FromStatusParam(p.Status); ok {
			p.Status = string(o)
		}
		if p.Status == "" {
			switch {
			case fallback != "":
				p.Status = string(fallback)
			case p.Error != "":
				p.Status = string(Failed)
			}
		}

		locale := h.locales.Match(c.Cookies(settings.LocaleCookie))
		target := "/" + locale + "/payment/result"
		if q := p.Query().Encode(); q != "" {
			target += "?" + q
		}
		return c.Redirect(target, fiber.StatusSeeOther)
	}
}

type resultResponse struct {
	Result
	RedirectTo string `json:"redirectTo,omitempty"`
	Countdown  int    `json:"countdown,omitempty"`
}

func (h *Handler) respond(res Result) resultResponse {
	out := resultResponse{Result: res, RedirectTo: res.RedirectTo()}
	if out.RedirectTo != "" {
		out.Countdown = h.countdown
	}
	return out
}

func (h *Handler) result(c *fiber.Ctx) error {
	sc, err := auth.RequestScope(c, h.scopes)
	if err != nil {
		return errs.Respond(c, errs.New(errs.NotHydrated, "Session is still loading"))
	}
	res := h.resolver.Resolve(c.UserContext(), device.ID(c), sc, ParseParams(c))
	return c.JSON(h.respond(res))
}

type pendingRequest struct {
	OrderID any `json:"orderId"`
}

func (h *Handler) pending(c *fiber.Ctx) error {
	payload := new(pendingRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	id := stringify(payload.OrderID)
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "orderId is required"})
	}
	if err := h.markers.Put(c.UserContext(), device.ID(c), id); err != nil {
		return errs.Respond(c, errs.New(errs.Internal, ""))
	}
	return c.Status(fiber.StatusNoContent).Send(nil)
}
