package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/phsym/console-slog"
)

const consoleTimeFormat = "15:04:05.000"

// SlogLogger is a Logger backed by log/slog.
type SlogLogger struct {
	mu     sync.Mutex
	logger *slog.Logger
	level  *slog.LevelVar
	output io.Writer
}

// NewSlog creates a slog backed Logger writing to stdout.
//
// With ENV=development the colourised console-slog handler is used, otherwise
// records are emitted as JSON with the time key renamed to "ts" and control
// characters in string values spelled out.
func NewSlog(level Level, addSource bool) Logger {
	return NewSlogWriter(os.Stdout, level, addSource)
}

// NewSlogWriter is like NewSlog but writes to w.
func NewSlogWriter(w io.Writer, level Level, addSource bool) Logger {
	lv := &slog.LevelVar{}
	lv.Set(toSlogLevel(level))

	var handler slog.Handler
	if os.Getenv("ENV") == "development" {
		handler = console.NewHandler(w, &console.HandlerOptions{
			AddSource:  true,
			Level:      lv,
			TimeFormat: consoleTimeFormat,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource:   addSource,
			Level:       lv,
			ReplaceAttr: replaceAttr,
		})
	}

	return &SlogLogger{
		logger: slog.New(handler),
		level:  lv,
		output: w,
	}
}

func (l *SlogLogger) Debug(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, keysAndValues...)
}

func (l *SlogLogger) Info(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, keysAndValues...)
}

func (l *SlogLogger) Warn(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, keysAndValues...)
}

func (l *SlogLogger) Error(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelError, msg, keysAndValues...)
}

func (l *SlogLogger) Fatal(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelError, msg, keysAndValues...)
	os.Exit(1)
}

// With returns a child logger sharing the level of l.
func (l *SlogLogger) With(keyValues ...any) Logger {
	return &SlogLogger{
		logger: l.logger.With(keyValues...),
		level:  l.level,
		output: l.output,
	}
}

func (l *SlogLogger) Level() Level {
	switch lv := l.level.Level(); {
	case lv <= slog.LevelDebug:
		return DebugLevel
	case lv <= slog.LevelInfo:
		return InfoLevel
	case lv <= slog.LevelWarn:
		return WarnLevel
	default:
		return ErrorLevel
	}
}

func (l *SlogLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.level.Set(toSlogLevel(level))
}

// log is the low-level logging method for methods that take ...any.
// It must always be called directly by an exported logging method
// or function, because it uses a fixed call depth to obtain the pc.
func (l *SlogLogger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !l.logger.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	// skip [runtime.Callers, this function, this function's caller]
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.logger.Handler().Handle(ctx, r)
}

func toSlogLevel(level Level) slog.Level {
	switch {
	case level <= DebugLevel:
		return slog.LevelDebug
	case level == InfoLevel:
		return slog.LevelInfo
	case level == WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		a.Key = "ts"
		return a
	}

	if a.Value.Kind() == slog.KindString {
		if s := a.Value.String(); strings.ContainsFunc(s, unicode.IsControl) {
			a.Value = slog.StringValue(Printable(s))
		}
	}

	return a
}

// Printable spells out the control characters of s, so that telex control
// tokens such as "\x1bA" read as "<ESC>A".
func Printable(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r == 0x1b:
			sb.WriteString("<ESC>")
		case r == '\r':
			sb.WriteString("<CR>")
		case r == '\n':
			sb.WriteString("<LF>")
		case unicode.IsControl(r):
			fmt.Fprintf(&sb, "<0x%02x>", r)
		default:
			sb.WriteRune(r)
		}
	}

	return sb.String()
}
