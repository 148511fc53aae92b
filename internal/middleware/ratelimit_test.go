package middleware

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/minledger/minledger/internal/logging"
)

func TestRateLimitRejectsOverLimit(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Post("/event", RateLimit(cache, 2, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	want := []int{fiber.StatusCreated, fiber.StatusCreated, fiber.StatusTooManyRequests}
	for i, code := range want {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/event", nil))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if resp.StatusCode != code {
			t.Fatalf("request %d: expected %d got %d", i, code, resp.StatusCode)
		}
	}
}

func TestRateLimitNoopWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Post("/event", RateLimit(nil, 1, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	for i := range 3 {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/event", nil))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("request %d: expected %d got %d", i, fiber.StatusCreated, resp.StatusCode)
		}
	}
}

func TestAuditAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	app := fiber.New()
	app.Use(RequestID(), Audit(logger))
	app.Get("/balance", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).SendString("0")
	})

	req := httptest.NewRequest(fiber.MethodGet, "/balance", nil)
	req.Header.Set(requestIDHeader, "req-42")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if got := resp.Header.Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}

	out := buf.String()
	for _, want := range []string{`"request_id":"req-42"`, `"status":404`, `"level":"WARN"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in audit log %s", want, out)
		}
	}
}
