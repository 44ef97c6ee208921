package router

import (
	"time"

	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/interfaces/http/handler"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig carries what the HTTP engine needs beyond the handlers
type EngineConfig struct {
	App       config.AppConfig
	HTTP      config.HTTPConfig
	Telemetry config.TelemetryConfig
	Logger    *zap.Logger
	// Verifier authenticates API requests; nil disables authentication
	Verifier middleware.TokenVerifier
	// Meter records HTTP metrics; nil disables them
	Meter metric.Meter
	// Idempotency guards payment routes
	Idempotency gin.HandlerFunc
}

// NewEngine builds the gin engine with the full middleware chain, the
// health endpoint and every API route.
func NewEngine(cfg EngineConfig, handlers Handlers, health *handler.HealthHandler) (*gin.Engine, error) {
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		logger.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled),
		logger.GinMiddleware(cfg.Logger),
		middleware.HTTPMetrics(cfg.Meter),
		middleware.CORS(middleware.CORSConfig{
			AllowOrigins: cfg.HTTP.CORSAllowOrigins,
			AllowMethods: cfg.HTTP.CORSAllowMethods,
			AllowHeaders: cfg.HTTP.CORSAllowHeaders,
			MaxAge:       12 * time.Hour,
		}),
		middleware.SecureHeaders(cfg.App.IsProduction()),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow))
	}

	engine.GET("/health", health.Health)

	var apiMiddleware []gin.HandlerFunc
	if cfg.Verifier != nil {
		apiMiddleware = append(apiMiddleware, middleware.JWTAuth(middleware.JWTMiddlewareConfig{
			Verifier: cfg.Verifier,
			Logger:   cfg.Logger,
		}))
	}
	apiMiddleware = append(apiMiddleware, middleware.SpanAttributes())

	idempotent := cfg.Idempotency
	if idempotent == nil {
		idempotent = middleware.Idempotency(nil, 0)
	}

	NewRouter(engine, WithMiddleware(apiMiddleware...)).
		Register(LedgerGroups(handlers, idempotent)...).
		Setup()

	return engine, nil
}
