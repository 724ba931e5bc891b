// Package logger is the structured logging interface used across the editor.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger handed to stores, services and servers.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger carrying the given fields.
	With(fields ...Field) Logger
	Sync() error
}

// Field is a key-value pair attached to a log entry.
type Field = zap.Field

// Config selects level and destinations.
type Config struct {
	Level       string
	Development bool
	// OutputPaths defaults to stderr. The MCP server speaks on stdout, so
	// logs must never go there while it runs.
	OutputPaths []string
}

type zapLogger struct {
	logger *zap.Logger
}

// New builds a JSON zap logger from cfg.
func New(cfg Config) (Logger, error) {
	z, err := zapConfig(cfg).Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &zapLogger{logger: z}, nil
}

func zapConfig(cfg Config) zap.Config {
	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	zapCfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zapCfg.OutputPaths = []string{"stderr"}
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}
	zapCfg.ErrorOutputPaths = []string{"stderr"}
	if cfg.Development {
		zapCfg.Sampling = nil
	}
	return zapCfg
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return &zapLogger{logger: zap.NewNop()}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.logger.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.logger.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.logger.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.logger.Error(msg, fields...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{logger: l.logger.With(fields...)}
}

func (l *zapLogger) Sync() error { return l.logger.Sync() }

func String(key, val string) Field           { return zap.String(key, val) }
func Strings(key string, val []string) Field { return zap.Strings(key, val) }
func Int(key string, val int) Field          { return zap.Int(key, val) }
func Bool(key string, val bool) Field        { return zap.Bool(key, val) }
func Error(err error) Field                  { return zap.Error(err) }
func Any(key string, val any) Field          { return zap.Any(key, val) }
