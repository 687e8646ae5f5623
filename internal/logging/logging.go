// Package logging provides structured logging for the CLI, the API and the engine.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the global logger instance
	Logger *zap.Logger

	// Sugar is the sugared logger for convenience
	Sugar *zap.SugaredLogger
)

// Config contains logging configuration
type Config struct {
	// Level is the minimum log level
	Level string `json:"level" toml:"level"`

	// Format is the output format (json, console)
	Format string `json:"format" toml:"format"`

	// Output is the output destination (stdout, stderr, file path)
	Output string `json:"output" toml:"output"`

	// Development enables development mode
	Development bool `json:"development" toml:"development"`
}

// DefaultConfig logs warnings and above to stderr so that fail-soft
// diagnostics are visible without drowning the CLI tables.
func DefaultConfig() Config {
	return Config{
		Level:       "warn",
		Format:      "console",
		Output:      "stderr",
		Development: false,
	}
}

// New builds a logger from cfg without touching the global instance.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.WarnLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	var sink zapcore.WriteSyncer
	switch cfg.Output {
	case "", "stderr":
		sink = zapcore.AddSync(os.Stderr)
	case "stdout":
		sink = zapcore.AddSync(os.Stdout)
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		sink = zapcore.AddSync(file)
	}

	core := zapcore.NewCore(encoder, sink, level)
	if cfg.Development {
		return zap.New(core, zap.Development(), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
	}
	return zap.New(core, zap.AddCaller()), nil
}

// Initialize sets up the global logger
func Initialize(cfg Config) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}
	Logger = logger
	Sugar = Logger.Sugar()
	return nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Sync flushes the logger
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Named returns a child of the global logger scoped to a component.
func Named(component string) *zap.Logger {
	return Logger.Named(component)
}

// Debug logs at debug level
func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

// Info logs at info level
func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

// Warn logs at warn level
func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

// Error logs at error level
func Error(msg string, fields ...zap.Field) {
	Logger.Error(msg, fields...)
}

func init() {
	_ = Initialize(DefaultConfig())
}
