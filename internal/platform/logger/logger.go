package logger

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yungbote/surveyreport-backend/internal/platform/ctxutil"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
	scrub         *scrubber
}

type Options struct {
	// Mode is prod, test or anything else for development output.
	Mode string
	// Redact masks secrets and hashes participant names in key/value pairs.
	Redact   bool
	HashSalt string
}

// OptionsFromEnv reads LOG_REDACTION_ENABLED (default on) and LOG_HASH_SALT.
func OptionsFromEnv(mode string) Options {
	opts := Options{Mode: mode, Redact: true, HashSalt: strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED"))) {
	case "0", "false", "no", "off":
		opts.Redact = false
	}
	return opts
}

func New(mode string) (*Logger, error) {
	return NewWithOptions(OptionsFromEnv(mode))
}

func NewWithOptions(opts Options) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(opts.Mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "test":
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return FromZap(zl, opts), nil
}

// FromZap wraps an existing zap logger.
func FromZap(zl *zap.Logger, opts Options) *Logger {
	l := &Logger{SugaredLogger: zl.Sugar()}
	if opts.Redact {
		l.scrub = &scrubber{salt: opts.HashSalt}
	}
	return l
}

func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) kv(keysAndValues []interface{}) []interface{} {
	return l.scrub.apply(keysAndValues)
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, l.kv(keysAndValues)...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, l.kv(keysAndValues)...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, l.kv(keysAndValues)...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, l.kv(keysAndValues)...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, l.kv(keysAndValues)...)
}

func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(l.kv(keysAndValues)...), scrub: l.scrub}
}

// WithContext adds the trace, request and report ids carried by ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	meta, ok := ctxutil.RequestMetaFrom(ctx)
	if !ok {
		return l
	}
	fields := meta.LogFields()
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
