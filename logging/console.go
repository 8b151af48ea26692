package logging

import (
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"time"
)

// ConsoleLoggerOptions 控制台日志选项
type ConsoleLoggerOptions struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
	Output           io.Writer

	// Json 以 JSON 行输出
	Json bool
	// Async 通过后台协程写入，BufferSize 为队列长度
	Async      bool
	BufferSize int
}

// entryWriter 是日志条目的落地方式
type entryWriter interface {
	WriteLog(entry *LogEntry)
}

// ConsoleLoggerProvider 控制台日志提供者
type ConsoleLoggerProvider struct {
	options      ConsoleLoggerOptions
	minimumLevel LogLevel
	writer       entryWriter
	async        *AsyncWriter
	mu           sync.RWMutex
}

func NewConsoleLoggerProvider(options ConsoleLoggerOptions) *ConsoleLoggerProvider {
	if options.Output == nil {
		options.Output = os.Stdout
	}

	var formatter Formatter
	if options.Json {
		formatter = NewJsonFormatter()
	} else {
		formatter = &TextFormatter{
			IncludeTimestamp: options.IncludeTimestamp,
			TimestampFormat:  options.TimestampFormat,
			ColorOutput:      options.ColorOutput,
		}
	}

	p := &ConsoleLoggerProvider{
		options:      options,
		minimumLevel: LogLevelInfo,
	}
	if options.Async {
		size := options.BufferSize
		if size <= 0 {
			size = 1024
		}
		p.async = NewAsyncWriter(options.Output, formatter, size)
		p.writer = p.async
	} else {
		p.writer = &syncWriter{w: options.Output, formatter: formatter}
	}
	return p
}

func (p *ConsoleLoggerProvider) CreateLogger(category string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &consoleLogger{
		category:     category,
		writer:       p.writer,
		minimumLevel: p.minimumLevel,
	}
}

func (p *ConsoleLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minimumLevel = level
}

// Close 刷新并关闭异步写入器
func (p *ConsoleLoggerProvider) Close() error {
	if p.async != nil {
		return p.async.Close()
	}
	return nil
}

// syncWriter 在调用方协程中格式化并写入
type syncWriter struct {
	w         io.Writer
	formatter Formatter
	mu        sync.Mutex
}

func (s *syncWriter) WriteLog(entry *LogEntry) {
	data, err := s.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: format error: %v\n", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeLine(s.w, data)
}

// consoleLogger 控制台日志实现
type consoleLogger struct {
	category     string
	writer       entryWriter
	minimumLevel LogLevel
	fields       []Field
}

func (l *consoleLogger) Trace(msg string, fields ...Field) {
	l.Log(LogLevelTrace, msg, fields...)
}

func (l *consoleLogger) Debug(msg string, fields ...Field) {
	l.Log(LogLevelDebug, msg, fields...)
}

func (l *consoleLogger) Info(msg string, fields ...Field) {
	l.Log(LogLevelInfo, msg, fields...)
}

func (l *consoleLogger) Warn(msg string, fields ...Field) {
	l.Log(LogLevelWarn, msg, fields...)
}

func (l *consoleLogger) Error(msg string, fields ...Field) {
	l.Log(LogLevelError, msg, fields...)
}

func (l *consoleLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	os.Exit(1)
}

func (l *consoleLogger) Log(level LogLevel, msg string, fields ...Field) {
	if level < l.minimumLevel {
		return
	}
	l.writer.WriteLog(&LogEntry{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Message:  msg,
		Fields:   slices.Concat(l.fields, fields),
	})
}

func (l *consoleLogger) WithFields(fields ...Field) Logger {
	return &consoleLogger{
		category:     l.category,
		writer:       l.writer,
		minimumLevel: l.minimumLevel,
		fields:       slices.Concat(l.fields, fields),
	}
}

func (l *consoleLogger) WithCategory(category string) Logger {
	return &consoleLogger{
		category:     category,
		writer:       l.writer,
		minimumLevel: l.minimumLevel,
		fields:       l.fields,
	}
}

// colorize 为日志级别添加颜色
func colorize(level LogLevel, text string) string {
	const (
		reset   = "\033[0m"
		gray    = "\033[90m"
		cyan    = "\033[36m"
		green   = "\033[32m"
		yellow  = "\033[33m"
		red     = "\033[31m"
		magenta = "\033[35m"
	)

	switch level {
	case LogLevelTrace:
		return gray + text + reset
	case LogLevelDebug:
		return cyan + text + reset
	case LogLevelInfo:
		return green + text + reset
	case LogLevelWarn:
		return yellow + text + reset
	case LogLevelError:
		return red + text + reset
	case LogLevelFatal:
		return magenta + text + reset
	default:
		return text
	}
}

// writeLine 写入一条日志，缺少换行时补上（JSON 格式化器不带换行）
func writeLine(w io.Writer, data []byte) error {
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	_, err := w.Write(data)
	return err
}
