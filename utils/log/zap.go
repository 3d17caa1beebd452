package log

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu           sync.RWMutex
	globalLogger *zap.Logger
)

// Options configures the global logger.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string `yaml:"level"`
	// File enables the rotating file sink next to stdout.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

func init() {
	globalLogger = newLogger(Options{}, zapcore.AddSync(os.Stdout))
}

// Init replaces the global logger. Stdout is always a sink; File adds a
// rotating file.
func Init(opts Options) {
	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if opts.File != "" {
		sinks = append(sinks, zapcore.AddSync(newRotatingWriter(opts)))
	}

	logger := newLogger(opts, zapcore.NewMultiWriteSyncer(sinks...))

	mu.Lock()
	old := globalLogger
	globalLogger = logger
	mu.Unlock()

	_ = old.Sync()
}

func newLogger(opts Options, ws zapcore.WriteSyncer) *zap.Logger {
	// json encoder
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		ws,
		parseLevel(opts.Level),
	)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

func parseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil || s == "" {
		return zapcore.InfoLevel
	}
	return lvl
}

// L returns the global logger for packages that take a *zap.Logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

func Sync() error {
	return L().Sync()
}

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	L().Warn(msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...zap.Field) {
	L().Error(msg, fields...)
}

func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	L().Debug(msg, fields...)
}
