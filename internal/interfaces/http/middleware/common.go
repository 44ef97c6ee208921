// Package middleware provides the gin middleware chain of the ledger API.
package middleware

import (
	"net/http"
	"time"

	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/unrolled/secure"
)

const (
	// RequestIDHeader carries the request id in and out
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key holding the request id
	RequestIDKey = "request_id"
	// MaxRequestIDLength bounds client supplied request ids
	MaxRequestIDLength = 128
)

// RequestID reuses the caller's X-Request-ID or generates one, and echoes it
// in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > MaxRequestIDLength {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}

// GetRequestID returns the request id set by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// CORSConfig holds CORS middleware configuration
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       time.Duration
}

// CORS handles cross-origin requests. An empty origin list disables CORS
// headers entirely; "*" allows every origin.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	if len(cfg.AllowOrigins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	corsConfig := cors.DefaultConfig()
	for _, origin := range cfg.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowAllOrigins = true
		}
	}
	if !corsConfig.AllowAllOrigins {
		corsConfig.AllowOrigins = cfg.AllowOrigins
		corsConfig.AllowCredentials = true
	}
	if len(cfg.AllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.AllowMethods
	}
	corsConfig.AddAllowHeaders(cfg.AllowHeaders...)
	corsConfig.AddAllowHeaders(RequestIDHeader, IdempotencyKeyHeader)
	corsConfig.AddExposeHeaders(RequestIDHeader, "Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining")
	if cfg.MaxAge > 0 {
		corsConfig.MaxAge = cfg.MaxAge
	}
	return cors.New(corsConfig)
}

// SecureHeaders sets the standard security headers. HSTS is only sent in
// production where the service sits behind TLS.
func SecureHeaders(production bool) gin.HandlerFunc {
	opts := secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		PermissionsPolicy:     "camera=(), geolocation=(), microphone=(), payment=()",
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !production,
	}
	if production {
		opts.STSSeconds = 31536000
		opts.STSIncludeSubdomains = true
	}
	s := secure.New(opts)

	return func(c *gin.Context) {
		if err := s.Process(c.Writer, c.Request); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, "Request rejected"))
			return
		}
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}

// abortWithError stops the chain with an error envelope
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(code, message))
}
