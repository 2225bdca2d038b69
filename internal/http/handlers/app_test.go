package handlers_test

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/config"
	"storefront/internal/http/handlers"
)

func TestGlobalRateLimit(t *testing.T) {
	app, _ := newTestApp(t, func(c *config.Config) { c.RateLimitPerMin = 3 })

	for i := 0; i < 4; i++ {
		resp, _ := do(t, app, "GET", "/api/brands", "", nil)
		if i < 3 && resp.StatusCode == http.StatusTooManyRequests {
			t.Fatalf("hit rate limit too early at %d", i)
		}
		if i == 3 && resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("expected 429 after limit, got %d", resp.StatusCode)
		}
	}
	if resp, _ := do(t, app, "GET", "/healthz", "", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz must bypass the limiter, got %d", resp.StatusCode)
	}
}

func TestBodySizeLimit(t *testing.T) {
	app, _ := newTestApp(t)

	oversize := bytes.Repeat([]byte("A"), handlers.BodyLimit+10)
	req := httptest.NewRequest("POST", "/api/auth/local", bytes.NewReader(oversize))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	// fasthttp may refuse the body before any handler runs
	if err != nil {
		if strings.Contains(err.Error(), "body size exceeds") || strings.Contains(err.Error(), "too large") {
			return
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversize, got %d", resp.StatusCode)
	}
}

func TestErrorHandlerHidesInternals(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Get("/err", func(c *fiber.Ctx) error {
		return errors.New("db timeout: secret trace")
	})
	app.Get("/gone", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusGone, "gone for good")
	})

	var body []byte
	entries := captureLogs(t, func() {
		resp, err := app.Test(httptest.NewRequest("GET", "/err", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusInternalServerError {
			t.Errorf("expected 500, got %d", resp.StatusCode)
		}
		body, _ = io.ReadAll(resp.Body)
	})
	if strings.Contains(string(body), "secret") {
		t.Fatalf("internal details leaked: %s", body)
	}
	if e, ok := findAction(entries, "server.error"); !ok || !strings.Contains(e.Err, "db timeout") {
		t.Fatalf("server.error log missing cause: %+v", entries)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/gone", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusGone || !strings.Contains(string(body), "gone for good") {
		t.Fatalf("client errors keep their message: %d %s", resp.StatusCode, body)
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	app, _ := newTestApp(t)
	resp, body := do(t, app, "GET", "/api/nope", "", nil)
	if resp.StatusCode != http.StatusNotFound || body["error"] == nil {
		t.Fatalf("expected JSON 404, got %d %v", resp.StatusCode, body)
	}
}
