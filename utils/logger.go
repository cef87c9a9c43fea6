package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"apartment-watcher/models"
)

// Fields carries the structured payload of a log line.
type Fields map[string]any

// Sink receives every entry at info level or above. The log journal
// implements it.
type Sink interface {
	Append(entry models.LogEntry) error
}

// LoggerOptions configures the console side of a Logger.
type LoggerOptions struct {
	Writer   io.Writer
	Level    slog.Level
	Color    bool
	Location *time.Location
}

// Logger provides leveled logging throughout the application. Lines go to the
// console through slog and, when a Sink is attached, into the log journal.
type Logger struct {
	slog *slog.Logger
	loc  *time.Location
	sink Sink
}

// NewLogger creates a colored Logger writing to stdout at info level.
func NewLogger() *Logger {
	return NewLoggerWithOptions(LoggerOptions{Color: true})
}

// NewLoggerWithOptions creates a Logger from explicit options.
func NewLoggerWithOptions(opts LoggerOptions) *Logger {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	var handler slog.Handler
	if opts.Color {
		handler = tint.NewHandler(opts.Writer, &tint.Options{
			Level:      opts.Level,
			TimeFormat: "2006-01-02 15:04:05",
		})
	} else {
		handler = slog.NewTextHandler(opts.Writer, &slog.HandlerOptions{Level: opts.Level})
	}

	return &Logger{slog: slog.New(handler), loc: opts.Location}
}

// ParseLevel maps LOG_LEVEL values onto slog levels; unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetSink attaches the journal. It must be called before the logger is shared
// between goroutines.
func (l *Logger) SetSink(s Sink) {
	l.sink = s
}

func (l *Logger) Info(format string, args ...any) {
	l.Log(models.LevelInfo, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Warn(format string, args ...any) {
	l.Log(models.LevelWarn, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Error(format string, args ...any) {
	l.Log(models.LevelError, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Debug(format string, args ...any) {
	l.Log(models.LevelDebug, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Success(format string, args ...any) {
	l.Log(models.LevelSuccess, fmt.Sprintf(format, args...), nil)
}

// Log writes a structured line. Journal failures are reported on stderr and
// otherwise ignored: logging never fails the caller.
func (l *Logger) Log(level models.Level, msg string, data Fields) {
	attrs := make([]slog.Attr, 0, len(data)+1)
	if level == models.LevelSuccess {
		attrs = append(attrs, slog.String("status", "success"))
	}
	for k, v := range data {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.slog.LogAttrs(context.Background(), slogLevel(level), msg, attrs...)

	if l.sink == nil || level == models.LevelDebug {
		return
	}

	now := time.Now()
	entry := models.LogEntry{
		Timestamp:      now.UTC(),
		TimestampLocal: FormatLocal(now, l.loc),
		Level:          level,
		Message:        msg,
	}
	if len(data) > 0 {
		entry.Data = map[string]any(data)
	}
	if err := l.sink.Append(entry); err != nil {
		fmt.Fprintf(os.Stderr, "[logger] journal append failed: %v\n", err)
	}
}

func slogLevel(level models.Level) slog.Level {
	switch level {
	case models.LevelDebug:
		return slog.LevelDebug
	case models.LevelWarn:
		return slog.LevelWarn
	case models.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
