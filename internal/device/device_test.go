package device

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func makeApp() *fiber.App {
	app := fiber.New()
	app.Use(Middleware)
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(ID(c))
	})
	return app
}

func TestMiddleware_UsesHeader(t *testing.T) {
	app := makeApp()
	const id = "4f9a1c52-8d2e-4c47-9d3e-3f7b2f0a1b2c"

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(HeaderName, id)
	res, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(res.Body)
	if string(b) != id {
		t.Fatalf("expected %s, got %s", id, string(b))
	}
	if strings.Contains(res.Header.Get("Set-Cookie"), CookieName) {
		t.Fatalf("no cookie expected when header carries the id")
	}
}

func TestMiddleware_MintsCookie(t *testing.T) {
	app := makeApp()

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(HeaderName, "not-a-uuid")
	res, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(res.Body)
	if !valid(string(b)) {
		t.Fatalf("expected a generated uuid, got %q", string(b))
	}
	if !strings.Contains(res.Header.Get("Set-Cookie"), CookieName+"="+string(b)) {
		t.Fatalf("expected device cookie, got %q", res.Header.Get("Set-Cookie"))
	}
}
