package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/backoffice/internal/infrastructure/cache"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdempotentRouter(t *testing.T, store cache.Store, status int) (*gin.Engine, *int32) {
	t.Helper()
	var calls int32
	router := gin.New()
	router.POST("/payments", Idempotency(store, time.Hour), func(c *gin.Context) {
		n := atomic.AddInt32(&calls, 1)
		c.JSON(status, gin.H{"success": status < 400, "call": n})
	})
	return router, &calls
}

func postPayment(router *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{"amount":"100"}`))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	t.Run("retry replays the first response", func(t *testing.T) {
		store := cache.NewInMemoryStore(time.Minute)
		defer store.Close()
		router, calls := newIdempotentRouter(t, store, http.StatusOK)

		first := postPayment(router, "pay-1")
		second := postPayment(router, "pay-1")

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusOK, second.Code)
		assert.JSONEq(t, first.Body.String(), second.Body.String())
		assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	})

	t.Run("different keys both run", func(t *testing.T) {
		store := cache.NewInMemoryStore(time.Minute)
		defer store.Close()
		router, calls := newIdempotentRouter(t, store, http.StatusOK)

		postPayment(router, "pay-1")
		postPayment(router, "pay-2")
		postPayment(router, "")

		assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	})

	t.Run("rejected requests are replayed too", func(t *testing.T) {
		store := cache.NewInMemoryStore(time.Minute)
		defer store.Close()
		router, calls := newIdempotentRouter(t, store, http.StatusBadRequest)

		assert.Equal(t, http.StatusBadRequest, postPayment(router, "pay-1").Code)
		assert.Equal(t, http.StatusBadRequest, postPayment(router, "pay-1").Code)
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	})

	t.Run("server errors release the key", func(t *testing.T) {
		store := cache.NewInMemoryStore(time.Minute)
		defer store.Close()
		router, calls := newIdempotentRouter(t, store, http.StatusInternalServerError)

		postPayment(router, "pay-1")
		postPayment(router, "pay-1")
		assert.Equal(t, int32(2), atomic.LoadInt32(calls))
	})

	t.Run("non-json response releases the key", func(t *testing.T) {
		store := cache.NewInMemoryStore(time.Minute)
		defer store.Close()
		var calls int32
		router := gin.New()
		router.POST("/payments", Idempotency(store, time.Hour), func(c *gin.Context) {
			atomic.AddInt32(&calls, 1)
			c.String(http.StatusOK, "receipt printed")
		})

		first := postPayment(router, "pay-1")
		second := postPayment(router, "pay-1")

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, "receipt printed", second.Body.String())
		assert.Empty(t, second.Header().Get("Idempotent-Replayed"))
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("in-flight request blocks its retry", func(t *testing.T) {
		store := cache.NewInMemoryStore(time.Minute)
		defer store.Close()
		router, calls := newIdempotentRouter(t, store, http.StatusOK)

		ok, err := store.SetNX(context.Background(), "idempotency::POST:/payments:pay-1", []byte(`{"state":"pending"}`), time.Hour)
		require.NoError(t, err)
		require.True(t, ok)

		w := postPayment(router, "pay-1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "DUPLICATE_REQUEST")
		assert.Equal(t, int32(0), atomic.LoadInt32(calls))
	})

	t.Run("nil store passes through", func(t *testing.T) {
		router, calls := newIdempotentRouter(t, nil, http.StatusOK)
		postPayment(router, "pay-1")
		postPayment(router, "pay-1")
		assert.Equal(t, int32(2), atomic.LoadInt32(calls))
	})
}
