package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perpexbistro/ride-hailing/pkg/cache"
	apperrors "github.com/perpexbistro/ride-hailing/pkg/errors"
	"github.com/perpexbistro/ride-hailing/pkg/logger"
)

// IdempotencyHeader carries the client-chosen request key
const IdempotencyHeader = "Idempotency-Key"

const inFlightTTL = 30 * time.Second

// ResponseStore is the subset of cache.Store the idempotency layer needs
type ResponseStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

var _ ResponseStore = (*cache.Store)(nil)

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Keys are scoped per user and route. A key whose first request is still
// running yields 409. 5xx responses are not stored so the client may retry.
// Requests without the header pass through, and cache failures fail open.
func Idempotency(store ResponseStore, ttl time.Duration, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		scope := "anonymous"
		if caller := CallerFrom(c); caller != nil {
			scope = caller.UserID.String()
		}
		base := scope + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
		responseKey, lockKey := "idem:resp:"+base, "idem:lock:"+base
		ctx := c.Request.Context()

		raw, err := store.Get(ctx, responseKey)
		switch {
		case err == nil:
			var stored storedResponse
			if err := json.Unmarshal(raw, &stored); err == nil {
				log.Info("Replaying idempotent response", logger.String("idempotency_key", key))
				c.Header("Idempotent-Replayed", "true")
				c.Data(stored.Status, stored.ContentType, stored.Body)
				c.Abort()
				return
			}
			log.Warn("Discarding unreadable idempotent response", logger.String("idempotency_key", key))
		case !errors.Is(err, cache.ErrMiss):
			log.Warn("Idempotency lookup failed", logger.Err(err))
			c.Next()
			return
		}

		acquired, err := store.SetNX(ctx, lockKey, []byte("1"), inFlightTTL)
		if err != nil {
			log.Warn("Idempotency lock failed", logger.Err(err))
			c.Next()
			return
		}
		if !acquired {
			appErr := apperrors.WithDetail(apperrors.ErrDuplicateRequest, "A request with this Idempotency-Key is already in progress")
			c.AbortWithStatusJSON(appErr.Status, gin.H{"code": appErr.Code, "message": appErr.Message})
			return
		}
		defer func() {
			if err := store.Delete(context.WithoutCancel(ctx), lockKey); err != nil {
				log.Warn("Failed to release idempotency lock", logger.Err(err))
			}
		}()

		writer := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		status := writer.Status()
		if status >= 500 {
			return
		}
		payload, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body.Bytes(),
		})
		if err != nil {
			return
		}
		if err := store.Set(context.WithoutCancel(ctx), responseKey, payload, ttl); err != nil {
			log.Warn("Failed to store idempotent response", logger.Err(err))
		}
	}
}
