// Package device identifies the browser/app instance a request belongs to.
package device

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	HeaderName = "X-Device-ID"
	CookieName = "device_id"
	localsKey  = "device_id"
)

// Middleware resolves the device id from the X-Device-ID header or the
// device_id cookie, minting and setting a new cookie when neither is present.
func Middleware(c *fiber.Ctx) error {
	id := c.Get(HeaderName)
	if !valid(id) {
		id = c.Cookies(CookieName)
	}
	if !valid(id) {
		id = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     CookieName,
			Value:    id,
			Path:     "/",
			Expires:  time.Now().Add(365 * 24 * time.Hour),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	c.Locals(localsKey, id)
	c.Set(HeaderName, id)
	return c.Next()
}

// ID returns the device id planted by Middleware, or "" when absent.
func ID(c *fiber.Ctx) string {
	id, _ := c.Locals(localsKey).(string)
	return id
}

func valid(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
