package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimit(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(2, time.Minute))
	router.GET("/test", okHandler)

	send := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234").Code)

	limited := send("10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Contains(t, limited.Body.String(), "RATE_LIMITED")
	assert.Equal(t, "2", limited.Header().Get("X-RateLimit-Limit"))

	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234").Code, "other clients keep their own allowance")
}
