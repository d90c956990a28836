package gologger

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

// Config selects the zap level and encoder. Encoding is "json" or "console".
type Config struct {
	Level    string `koanf:"level" mapstructure:"level"`
	Encoding string `koanf:"encoding" mapstructure:"encoding"`
}

// NewZap builds a zap logger writing to stdout. An unknown level falls back
// to info; an unknown encoding is an error.
func NewZap(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if strings.TrimSpace(cfg.Level) != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			level.SetLevel(zap.InfoLevel)
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(cfg.Encoding)) {
	case "", "json":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return nil, fmt.Errorf("gologger: unsupported encoding %q", cfg.Encoding)
	}

	return zap.New(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// Logger adapts a zap logger to glog.Logger and glog.FieldsLogger.
type Logger struct {
	sugar *zap.SugaredLogger
}

var (
	_ glog.Logger         = (*Logger)(nil)
	_ glog.FieldsLogger   = (*Logger)(nil)
	_ glog.LoggerProvider = (*Provider)(nil)
)

func NewLogger(base *zap.Logger) *Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return &Logger{sugar: base.Sugar()}
}

// Trace maps to zap debug; zap has no lower level.
func (l *Logger) Trace(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

// Fatal logs at error level with fatal=true. It does not exit the process.
func (l *Logger) Fatal(msg string, args ...any) {
	l.sugar.Errorw(msg, append([]any{"fatal", true}, args...)...)
}

func (l *Logger) WithContext(context.Context) glog.Logger {
	return l
}

// WithFields returns a child logger carrying fields in key order.
func (l *Logger) WithFields(fields map[string]any) glog.Logger {
	if len(fields) == 0 {
		return l
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(fields)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return &Logger{sugar: l.sugar.With(args...)}
}

func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// Provider hands out zap loggers named after the requested component.
type Provider struct {
	base *zap.Logger
}

func NewProvider(base *zap.Logger) *Provider {
	if base == nil {
		base = zap.NewNop()
	}
	return &Provider{base: base}
}

func (p *Provider) GetLogger(name string) glog.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewLogger(p.base)
	}
	return NewLogger(p.base.Named(name))
}

// Setup builds the zap backend from cfg and returns the provider plus the
// root logger, ready for core.WithLoggerProvider.
func Setup(name string, cfg Config) (glog.LoggerProvider, glog.Logger, error) {
	base, err := NewZap(cfg)
	if err != nil {
		return nil, nil, err
	}
	provider, logger := Resolve(name, NewProvider(base), nil)
	return provider, logger, nil
}

// ResolveForJob resolves like Resolve and also returns go-job bridges, for
// hosts that run wallet commands from go-job workers.
func ResolveForJob(
	name string,
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(name, provider, logger)
	var jobProvider job.LoggerProvider
	if resolvedProvider != nil {
		jobProvider = job.GoLoggerProvider(resolvedProvider)
	}
	var jobLogger job.Logger
	if resolvedLogger != nil {
		jobLogger = job.GoLogger(resolvedLogger)
	}
	return resolvedProvider, resolvedLogger, jobProvider, jobLogger
}
