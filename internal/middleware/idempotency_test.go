package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paywallet/wallet_ledger/internal/logging"
)

func setupTestApp(t *testing.T) (*fiber.App, *atomic.Int32) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})

	calls := &atomic.Int32{}
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/wallets/:walletId/credit", func(c *fiber.Ctx) error {
		n := calls.Add(1)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"wallet": c.Params("walletId"), "call": n})
	})
	app.Post("/wallets/:walletId/debit", func(c *fiber.Ctx) error {
		calls.Add(1)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Transaction failed"})
	})
	app.Get("/wallets/:walletId", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app, calls
}

func send(t *testing.T, app *fiber.App, method, path, key string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(`{"amount":10}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	app, calls := setupTestApp(t)

	status, _ := send(t, app, fiber.MethodPost, "/wallets/w1/credit", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Zero(t, calls.Load())

	status, _ = send(t, app, fiber.MethodGet, "/wallets/w1", "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	app, calls := setupTestApp(t)

	status, first := send(t, app, fiber.MethodPost, "/wallets/w1/credit", "abc123")
	require.Equal(t, fiber.StatusOK, status)

	status, second := send(t, app, fiber.MethodPost, "/wallets/w1/credit", "abc123")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestIdempotencyKeyIsScopedToPath(t *testing.T) {
	app, calls := setupTestApp(t)

	_, first := send(t, app, fiber.MethodPost, "/wallets/w1/credit", "same-key")
	_, second := send(t, app, fiber.MethodPost, "/wallets/w2/credit", "same-key")

	assert.NotEqual(t, first, second)
	assert.Contains(t, second, `"wallet":"w2"`)
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	app, calls := setupTestApp(t)

	status, _ := send(t, app, fiber.MethodPost, "/wallets/w1/debit", "retry-me")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	status, _ = send(t, app, fiber.MethodPost, "/wallets/w1/debit", "retry-me")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotencyRejectsRetryWhileInFlight(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})

	calls := &atomic.Int32{}
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/wallets/:walletId/credit", func(c *fiber.Ctx) error {
		calls.Add(1)
		return c.SendStatus(fiber.StatusOK)
	})

	// A first attempt holding the key has not finished yet.
	require.NoError(t, mr.Set(idempotencyPrefix+"POST:/wallets/w1/credit:busy", inProgressMarker))

	status, _ := send(t, app, fiber.MethodPost, "/wallets/w1/credit", "busy")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Zero(t, calls.Load())
}

func TestIdempotencyForgetsFailedMovements(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})

	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/wallets/:walletId/debit", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Insufficient funds")
	})

	status, _ := send(t, app, fiber.MethodPost, "/wallets/w1/debit", "k1")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.False(t, mr.Exists(idempotencyPrefix+"POST:/wallets/w1/debit:k1"))
}
