package payment

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"github.com/wichananm65/storefront-gateway/internal/auth"
	"github.com/wichananm65/storefront-gateway/internal/backend"
	"github.com/wichananm65/storefront-gateway/internal/device"
	"github.com/wichananm65/storefront-gateway/internal/errs"
)

// stream serves the result page flow as server-sent events: the loading
// status, the terminal result and, for a successful order, a countdown
// followed by a navigate event.
func (h *Handler) stream(c *fiber.Ctx) error {
	sc, err := auth.RequestScope(c, h.scopes)
	if err != nil {
		return errs.Respond(c, errs.New(errs.NotHydrated, "Session is still loading"))
	}
	p := ParseParams(c)
	deviceID := device.ID(c)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := h.runStream(ctx, w, deviceID, sc, p); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("payment: result stream for device %s ended: %v", deviceID, err)
		}
	}))
	return nil
}

func (h *Handler) runStream(ctx context.Context, w *bufio.Writer, deviceID string, sc backend.Scope, p Params) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// send never writes once ctx is done; a failed flush means the client
	// went away and cancels everything still running.
	send := func(event string, data any) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b); err != nil {
			cancel()
			return err
		}
		if err := w.Flush(); err != nil {
			cancel()
			return err
		}
		return nil
	}

	if err := send("status", fiber.Map{"status": Loading}); err != nil {
		return err
	}
	res := h.resolver.Resolve(ctx, deviceID, sc, p)
	out := h.respond(res)
	if err := send("status", out); err != nil {
		return err
	}
	if out.RedirectTo == "" {
		return nil
	}

	err := Countdown(ctx, h.countdown, h.tick, func(remaining int) error {
		return send("countdown", fiber.Map{"remaining": remaining})
	})
	if err != nil {
		return err
	}
	return send("navigate", fiber.Map{"to": out.RedirectTo})
}
