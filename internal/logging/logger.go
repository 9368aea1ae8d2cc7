// Package logging builds the service's structured logger, adapted from
// the pack's zap-based logging setup (gopkg.in/natefinch/lumberjack is
// dropped: this service has no file-rotation requirement in its spec).
package logging

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	defaultLogger     *zap.Logger
	defaultLoggerOnce sync.Once
	defaultLoggerMu   sync.Mutex
)

// Config controls the logger's verbosity and output shape.
type Config struct {
	Level zapcore.Level
	JSON  bool
}

// New builds a zap.Logger writing to stdout, console-formatted in
// development and JSON-formatted when Config.JSON is set.
func New(cfg Config) *zap.Logger {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.TimeKey = "ts"

	var encoder zapcore.Encoder
	if cfg.JSON {
		encoder = zapcore.NewJSONEncoder(ec)
	} else {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format("2006-01-02T15:04:05Z07:00"))
		}
		encoder = zapcore.NewConsoleEncoder(ec)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zap.NewAtomicLevelAt(cfg.Level))
	return zap.New(core)
}

// SetDefault installs logger as the process-wide default returned by L().
func SetDefault(logger *zap.Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = logger
}

// L returns the process-wide default logger, falling back to a bare
// production logger if SetDefault was never called (e.g. in tests).
func L() *zap.Logger {
	if defaultLogger != nil {
		return defaultLogger
	}
	defaultLoggerOnce.Do(func() {
		defaultLogger = New(Config{Level: zapcore.InfoLevel})
	})
	return defaultLogger
}
