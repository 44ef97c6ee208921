package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// DBTracingConfig controls the otelgorm plugin.
type DBTracingConfig struct {
	DBName string
	// IncludeVariables records bound query parameters on spans.
	IncludeVariables bool
	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider
}

// RegisterDBTracing installs the otelgorm plugin so every query emits a span
// under the caller's trace.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig) error {
	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.IncludeVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	return db.Use(otelgorm.NewPlugin(opts...))
}
