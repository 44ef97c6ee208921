package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
)

type clientIPKey struct{}

// RateLimit limits each client IP to requests per window. The client IP is
// resolved by gin so trusted proxy settings apply.
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	limiter := httprate.Limit(requests, window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if ip, ok := r.Context().Value(clientIPKey{}).(string); ok && ip != "" {
				return "ip:" + ip, nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			ctx, ok := r.Context().Value(ginContextKey{}).(*gin.Context)
			if !ok {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			abortWithError(ctx, http.StatusTooManyRequests, dto.ErrCodeRateLimited, "Too many requests, retry later")
		}),
	)

	return func(c *gin.Context) {
		passed := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
		})

		ctx := context.WithValue(c.Request.Context(), clientIPKey{}, c.ClientIP())
		ctx = context.WithValue(ctx, ginContextKey{}, c)
		limiter(next).ServeHTTP(c.Writer, c.Request.WithContext(ctx))

		if !passed {
			c.Abort()
			return
		}
		c.Next()
	}
}

type ginContextKey struct{}
