// Package logx provides structured logging functionality
package logx

import (
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger. A scoped logger (see GetScope) resolves the global
// logger on every call so it follows Init reconfiguration.
type Logger struct {
	zap   *zap.Logger
	sugar *zap.SugaredLogger
	scope string
}

var globalLogger atomic.Pointer[Logger]

func init() {
	l, err := New("")
	if err != nil {
		panic(err)
	}
	globalLogger.Store(l)
}

// IsLocalDev checks if the environment is local development
func IsLocalDev(appEnv string) bool {
	return appEnv == "local" || appEnv == "dev" || appEnv == "development"
}

// New creates a standalone logger named scope.
func New(scope string) (*Logger, error) {
	config := getLoggerConfig()
	if IsLocalDev(os.Getenv("APP_ENV")) {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}
	if scope != "" {
		zapLogger = zapLogger.Named(scope)
	}
	return &Logger{zap: zapLogger, sugar: zapLogger.Sugar(), scope: scope}, nil
}

func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

func getLoggerConfig() zap.Config {
	config := zap.NewProductionConfig()
	config.Development = false
	config.DisableCaller = false
	config.DisableStacktrace = false
	config.Sampling = nil

	config.EncoderConfig = zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	config.Encoding = "console"
	return config
}

// Init replaces the global logger. Scoped loggers pick it up on their next call.
func Init(level, format string) {
	config := getLoggerConfig()
	switch strings.ToLower(format) {
	case "json":
		config.Encoding = "json"
		config.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	default:
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.Level = zap.NewAtomicLevelAt(parseLevel(level))

	zapLogger, err := config.Build()
	if err != nil {
		panic(err)
	}
	globalLogger.Store(&Logger{zap: zapLogger, sugar: zapLogger.Sugar()})
}

// Wrap adopts an existing zap logger, e.g. one built on a test core.
func Wrap(z *zap.Logger) *Logger {
	return &Logger{zap: z, sugar: z.Sugar()}
}

// GetScope returns a logger named after a package or component, e.g. "store".
func GetScope(name string) *Logger {
	return &Logger{scope: name}
}

// L returns the global sugar logger
func L() *zap.SugaredLogger {
	return Global().sugar
}

// GetLogger returns the underlying global zap logger
func GetLogger() *zap.Logger {
	return Global().zap
}

// Global returns the global logger instance
func Global() *Logger {
	return globalLogger.Load()
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
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

func (l *Logger) resolve() *zap.Logger {
	if l.zap != nil {
		return l.zap
	}
	g := Global()
	if g == nil || g.zap == nil {
		return zap.NewNop()
	}
	if l.scope == "" {
		return g.zap
	}
	return g.zap.Named(l.scope)
}

// Close flushes any buffered log entries
func (l *Logger) Close() error {
	return l.resolve().Sync()
}

// Sugar returns the sugar logger for key-value style logging
func (l *Logger) Sugar() *zap.SugaredLogger {
	if l.sugar != nil {
		return l.sugar
	}
	return l.resolve().Sugar()
}

// Zap returns the underlying zap logger
func (l *Logger) Zap() *zap.Logger {
	return l.resolve()
}

// With returns a child logger carrying fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	z := l.resolve().With(fields...)
	return &Logger{zap: z, sugar: z.Sugar(), scope: l.scope}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.resolve().Debug(msg, fields...) }

func (l *Logger) Info(msg string, fields ...zap.Field) { l.resolve().Info(msg, fields...) }

func (l *Logger) Warn(msg string, fields ...zap.Field) { l.resolve().Warn(msg, fields...) }

func (l *Logger) Error(msg string, fields ...zap.Field) { l.resolve().Error(msg, fields...) }

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, fields ...zap.Field) { l.resolve().Fatal(msg, fields...) }
