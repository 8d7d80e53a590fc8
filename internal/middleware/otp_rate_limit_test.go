package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func setupRateLimitApp(t *testing.T, maxPerMin int) (*fiber.App, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	app := fiber.New()
	app.Post("/otp", OTPRateLimit(cache, maxPerMin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app, mr
}

func issueOTPRequest(t *testing.T, app *fiber.App) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/otp", strings.NewReader(`{"phone_number":"212600000001"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestOTPRateLimitBlocksAfterBudget(t *testing.T) {
	app, mr := setupRateLimitApp(t, 3)

	for i := 0; i < 3; i++ {
		if status := issueOTPRequest(t, app); status != fiber.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, status)
		}
	}
	if status := issueOTPRequest(t, app); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 past the budget, got %d", status)
	}

	// The counter must carry a TTL so the subject is never locked out forever.
	if ttl := mr.TTL("rl:otp:212600000001"); ttl <= 0 {
		t.Fatalf("counter has no expiry: %v", ttl)
	}

	// A new window lifts the limit.
	mr.FastForward(2 * time.Minute)
	if status := issueOTPRequest(t, app); status != fiber.StatusOK {
		t.Fatalf("expected 200 after window reset, got %d", status)
	}
}

func TestOTPRateLimitNoopWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Post("/otp", OTPRateLimit(nil, 1), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(fiber.MethodPost, "/otp", strings.NewReader(`{"phone_number":"212600000001"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected pass-through without cache, got %d", resp.StatusCode)
		}
	}
}
