// Package telemetry wires OpenTelemetry traces, metrics and logs, Pyroscope
// profiling and database tracing for the service.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const (
	serviceVersion  = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

// Config holds telemetry configuration shared by every signal.
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	LogsEnabled       bool
	MetricsInterval   time.Duration
	ProfilingEnabled  bool
	PyroscopeServer   string
}

// Telemetry owns the providers started for the process.
type Telemetry struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
	logger   *zap.Logger
}

// Setup starts every configured provider. When telemetry is disabled each
// provider is a no-op and the global otel providers are left untouched.
func Setup(ctx context.Context, cfg Config, logger *zap.Logger) (*Telemetry, error) {
	t := &Telemetry{logger: logger}

	var err error
	if t.Tracer, err = NewTracerProvider(ctx, cfg, logger); err != nil {
		return nil, err
	}
	if t.Meter, err = NewMeterProvider(ctx, cfg, logger); err != nil {
		return nil, errors.Join(err, t.Tracer.Shutdown(ctx))
	}
	if t.Logs, err = NewLoggerProvider(ctx, cfg, logger); err != nil {
		return nil, errors.Join(err, t.Meter.Shutdown(ctx), t.Tracer.Shutdown(ctx))
	}
	if t.Profiler, err = NewProfiler(cfg, logger); err != nil {
		logger.Warn("Profiler not started", zap.Error(err))
		t.Profiler = &Profiler{logger: logger}
	} else if t.Profiler.IsEnabled() {
		t.Tracer.EnableSpanProfiles()
	}
	return t, nil
}

// Shutdown flushes and stops every provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.Profiler.Stop(),
		t.Logs.Shutdown(ctx),
		t.Meter.Shutdown(ctx),
		t.Tracer.Shutdown(ctx),
	)
}

func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
