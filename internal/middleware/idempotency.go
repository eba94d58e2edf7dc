package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
	cacheTimeout         = 2 * time.Second
)

// recordedMovement is the credit or debit response kept for replay.
type recordedMovement struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// Idempotency guards balance-changing requests. The first credit or debit
// sent with an Idempotency-Key is applied once and its response recorded;
// retries with the same key on the same wallet path get that response back
// without touching the ledger. A retry that arrives while the first attempt
// is still running gets 409. Movements that fail with an error or a 5xx are
// forgotten so the client can retry them.
func Idempotency(cache redis.UniversalClient, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		switch method {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		key := c.Get(idempotencyKeyHeader)
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing Idempotency-Key header")
		}
		movementKey := idempotencyPrefix + method + ":" + c.Path() + ":" + key
		log := logger.With(slog.String("idempotency_key", key), slog.String("path", c.Path()))

		ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
		defer cancel()

		cached, err := cache.Get(ctx, movementKey).Result()
		switch {
		case err == nil:
			return replayMovement(c, cached, log)
		case err != redis.Nil:
			log.Error("movement replay lookup failed", slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		}

		reserved, err := cache.SetNX(ctx, movementKey, inProgressMarker, ttl).Result()
		if err != nil {
			log.Error("could not reserve movement key", slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency reservation failure")
		}
		if !reserved {
			return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
		}

		if err := c.Next(); err != nil || c.Response().StatusCode() >= fiber.StatusInternalServerError {
			forgetMovement(cache, movementKey, log)
			return err
		}

		if err := recordMovement(c, cache, movementKey, ttl); err != nil {
			log.Error("could not record movement response", slog.Any("error", err))
			forgetMovement(cache, movementKey, log)
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency persistence failure")
		}
		return nil
	}
}

func replayMovement(c *fiber.Ctx, cached string, log *slog.Logger) error {
	if cached == inProgressMarker {
		return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
	}

	var recorded recordedMovement
	if err := json.Unmarshal([]byte(cached), &recorded); err != nil {
		log.Warn("recorded movement is unreadable", slog.Any("error", err))
		return fiber.NewError(fiber.StatusConflict, "duplicate request")
	}

	for header, value := range recorded.Headers {
		if strings.EqualFold(header, fiber.HeaderContentLength) {
			continue
		}
		c.Set(header, value)
	}
	return c.Status(recorded.Status).SendString(recorded.Body)
}

func recordMovement(c *fiber.Ctx, cache redis.UniversalClient, movementKey string, ttl time.Duration) error {
	recorded := recordedMovement{
		Status:  c.Response().StatusCode(),
		Body:    string(c.Response().Body()),
		Headers: map[string]string{},
	}
	c.Response().Header.VisitAll(func(k, v []byte) {
		recorded.Headers[string(k)] = string(v)
	})

	payload, err := json.Marshal(recorded)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	return cache.Set(ctx, movementKey, payload, ttl).Err()
}

// forgetMovement drops the reservation so a failed movement stays retryable.
func forgetMovement(cache redis.UniversalClient, movementKey string, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	if err := cache.Del(ctx, movementKey).Err(); err != nil {
		log.Warn("could not release movement key", slog.Any("error", err))
	}
}
