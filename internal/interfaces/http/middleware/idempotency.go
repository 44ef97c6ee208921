package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/erp/backoffice/internal/infrastructure/cache"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader names the client supplied retry key
	IdempotencyKeyHeader = "Idempotency-Key"
	// MaxIdempotencyKeyLength bounds the header value
	MaxIdempotencyKeyLength = 255

	idempotencyPending = "pending"
)

// storedResponse is what a completed request leaves behind for its retries
type storedResponse struct {
	State  string          `json:"state"`
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// captureWriter tees the response body so it can be replayed
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency makes payment requests safe to retry. The first request with a
// given Idempotency-Key runs; a retry after it finished gets the stored
// response, and a retry while it is still running is rejected. Server errors
// release the key. Requests without the header, or with a nil store, pass
// straight through.
func Idempotency(store cache.Store, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if store == nil || key == "" {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			abortWithError(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Idempotency-Key is too long")
			return
		}

		ctx := c.Request.Context()
		cacheKey := "idempotency:" + GetJWTUserID(c) + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
		pending, _ := json.Marshal(storedResponse{State: idempotencyPending})

		acquired, err := store.SetNX(ctx, cacheKey, pending, ttl)
		if err != nil {
			// cache outage: serve the request without replay protection
			logger.L(ctx).Warn("Idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			replay(c, store, cacheKey)
			return
		}

		writer := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		// the key outlives the request context
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()

		status := writer.Status()
		if status >= http.StatusInternalServerError {
			releaseKey(saveCtx, store, cacheKey)
			return
		}
		done, err := json.Marshal(storedResponse{State: "done", Status: status, Body: writer.body.Bytes()})
		if err != nil {
			// body is not JSON and cannot be replayed; let the retry run again
			logger.L(ctx).Warn("Failed to encode idempotent response",
				zap.String("path", c.Request.URL.Path), zap.Error(err))
			releaseKey(saveCtx, store, cacheKey)
			return
		}
		if err := store.Set(saveCtx, cacheKey, done, ttl); err != nil {
			logger.L(ctx).Warn("Failed to store idempotent response", zap.Error(err))
		}
	}
}

func releaseKey(ctx context.Context, store cache.Store, cacheKey string) {
	if err := store.Delete(ctx, cacheKey); err != nil {
		logger.L(ctx).Warn("Failed to release idempotency key", zap.Error(err))
	}
}

func replay(c *gin.Context, store cache.Store, cacheKey string) {
	raw, err := store.Get(c.Request.Context(), cacheKey)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		abortWithError(c, http.StatusServiceUnavailable, dto.ErrCodeInternal, "Could not check request status")
		return
	}

	var stored storedResponse
	if err != nil || json.Unmarshal(raw, &stored) != nil || stored.State == idempotencyPending {
		abortWithError(c, http.StatusBadRequest, dto.ErrCodeDuplicate, "A request with this Idempotency-Key is already being processed")
		return
	}

	c.Header("Idempotent-Replayed", "true")
	c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
	c.Abort()
}
