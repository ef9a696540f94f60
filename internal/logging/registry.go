package logging

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Registry hands out a *zap.SugaredLogger per named channel, each gated
// at the level logging-config.json assigns that channel, all writing
// through one shared rotating file sink plus stderr.
type Registry struct {
	mu      sync.Mutex
	cfg     Config
	rotator *lumberjack.Logger
	loggers map[string]*zap.SugaredLogger
	encoder zapcore.Encoder
}

// NewRegistry builds a Registry from cfg, opening (but not yet rotating)
// the configured log file.
func NewRegistry(cfg Config) *Registry {
	if cfg.Rotation.Truncate {
		if f, err := os.Create(cfg.Rotation.Path); err == nil {
			f.Close()
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	return &Registry{
		cfg: cfg,
		rotator: &lumberjack.Logger{
			Filename:   cfg.Rotation.Path,
			MaxSize:    cfg.Rotation.MaxSizeMB,
			MaxBackups: cfg.Rotation.MaxBackups,
			MaxAge:     cfg.Rotation.MaxAgeDays,
		},
		loggers: make(map[string]*zap.SugaredLogger),
		encoder: zapcore.NewJSONEncoder(encoderCfg),
	}
}

// Channel returns the logger for name, creating it on first use at the
// level configured for that channel (or the default channel's level, if
// name is unconfigured).
func (r *Registry) Channel(name string) *zap.SugaredLogger {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.loggers[name]; ok {
		return l
	}

	level := r.cfg.LevelFor(name)
	var core zapcore.Core
	if level == LevelOff {
		core = zapcore.NewNopCore()
	} else {
		enabler := zap.NewAtomicLevelAt(level.zapLevel())
		fileWriter := zapcore.AddSync(r.rotator)
		consoleWriter := zapcore.Lock(os.Stderr)
		core = zapcore.NewTee(
			zapcore.NewCore(r.encoder, fileWriter, enabler),
			zapcore.NewCore(r.encoder, consoleWriter, enabler),
		)
	}

	logger := zap.New(core).Named(name).Sugar()
	r.loggers[name] = logger
	return logger
}

// Sync flushes all channel loggers, propagating the first error seen (if
// any) rather than stopping at it, since flushing every channel matters
// more than the exact error text.
func (r *Registry) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, l := range r.loggers {
		if err := l.Sync(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("sync logger: %w", err)
		}
	}
	return firstErr
}

// Close flushes and releases the underlying rotating file.
func (r *Registry) Close() error {
	_ = r.Sync()
	return r.rotator.Close()
}
