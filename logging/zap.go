package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

// ZapLoggerProvider 将日志转发给 zap
type ZapLoggerProvider struct {
	base         *zap.Logger
	minimumLevel LogLevel
	mu           sync.RWMutex
}

func NewZapLoggerProvider(base *zap.Logger) *ZapLoggerProvider {
	if base == nil {
		base = zap.NewNop()
	}
	return &ZapLoggerProvider{
		base:         base,
		minimumLevel: LogLevelInfo,
	}
}

func (p *ZapLoggerProvider) CreateLogger(category string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return newZapLogger(p.base, category, nil, p.minimumLevel)
}

func (p *ZapLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minimumLevel = level
}

// Close 刷新 zap 缓冲
func (p *ZapLoggerProvider) Close() error {
	return p.base.Sync()
}

type zapLogger struct {
	base         *zap.Logger
	z            *zap.Logger
	category     string
	fields       []Field
	minimumLevel LogLevel
}

func newZapLogger(base *zap.Logger, category string, fields []Field, level LogLevel) *zapLogger {
	z := base
	if category != "" {
		z = z.Named(category)
	}
	if len(fields) > 0 {
		z = z.With(toZapFields(fields)...)
	}
	return &zapLogger{
		base:         base,
		z:            z,
		category:     category,
		fields:       fields,
		minimumLevel: level,
	}
}

func (l *zapLogger) Trace(msg string, fields ...Field) {
	l.Log(LogLevelTrace, msg, fields...)
}

func (l *zapLogger) Debug(msg string, fields ...Field) {
	l.Log(LogLevelDebug, msg, fields...)
}

func (l *zapLogger) Info(msg string, fields ...Field) {
	l.Log(LogLevelInfo, msg, fields...)
}

func (l *zapLogger) Warn(msg string, fields ...Field) {
	l.Log(LogLevelWarn, msg, fields...)
}

func (l *zapLogger) Error(msg string, fields ...Field) {
	l.Log(LogLevelError, msg, fields...)
}

func (l *zapLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	_ = l.z.Sync()
	os.Exit(1)
}

func (l *zapLogger) Log(level LogLevel, msg string, fields ...Field) {
	if level < l.minimumLevel {
		return
	}
	zf := toZapFields(fields)
	switch level {
	case LogLevelTrace, LogLevelDebug:
		l.z.Debug(msg, zf...)
	case LogLevelInfo:
		l.z.Info(msg, zf...)
	case LogLevelWarn:
		l.z.Warn(msg, zf...)
	default:
		// Fatal 的退出由 Fatal 方法负责
		l.z.Error(msg, zf...)
	}
}

func (l *zapLogger) WithFields(fields ...Field) Logger {
	all := append(append([]Field(nil), l.fields...), fields...)
	return newZapLogger(l.base, l.category, all, l.minimumLevel)
}

func (l *zapLogger) WithCategory(category string) Logger {
	return newZapLogger(l.base, category, l.fields, l.minimumLevel)
}

func toZapFields(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, fieldValue(f.Value)))
	}
	return out
}
