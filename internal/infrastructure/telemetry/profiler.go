package telemetry

import (
	"fmt"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// Profiler manages continuous profiling through Pyroscope.
type Profiler struct {
	profiler *pyroscope.Profiler
	logger   *zap.Logger
}

// NewProfiler starts the Pyroscope profiler when profiling is enabled.
func NewProfiler(cfg Config, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.ProfilingEnabled {
		return p, nil
	}
	if cfg.PyroscopeServer == "" {
		return nil, fmt.Errorf("pyroscope server address is required when profiling is enabled")
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.PyroscopeServer,
		Logger:          pyroscopeLogger{logger.Sugar()},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start pyroscope profiler: %w", err)
	}
	p.profiler = profiler

	logger.Info("Pyroscope profiler started",
		zap.String("server", cfg.PyroscopeServer),
		zap.String("application", cfg.ServiceName),
	)
	return p, nil
}

// IsEnabled reports whether the profiler is running.
func (p *Profiler) IsEnabled() bool {
	return p.profiler != nil
}

// Stop flushes and stops profiling.
func (p *Profiler) Stop() error {
	if p.profiler == nil {
		return nil
	}
	if err := p.profiler.Stop(); err != nil {
		return fmt.Errorf("failed to stop profiler: %w", err)
	}
	p.profiler = nil
	return nil
}

type pyroscopeLogger struct {
	s *zap.SugaredLogger
}

func (l pyroscopeLogger) Infof(format string, args ...any)  { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }
