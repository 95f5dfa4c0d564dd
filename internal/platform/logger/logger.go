// Package logger provides structured logging for the simulation.
// Every actor step that changes shared state is traceable through this.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Format selects how log lines are rendered.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Logger provides structured logging with context.
type Logger struct {
	zl zerolog.Logger
}

// Options configures a Logger.
type Options struct {
	Level  string // debug, info, warn, error
	Format Format
	Out    io.Writer
	App    string
}

// NewLogger creates a console logger on stdout at info level.
func NewLogger() *Logger {
	return New(Options{})
}

// New creates a logger from options. Console output is coloured only when the
// destination is a terminal.
func New(opts Options) *Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	app := opts.App
	if app == "" {
		app = "ghosthunt"
	}

	if opts.Format != FormatJSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    !isTerminal(out),
		}
	}

	zl := zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("app", app).
		Logger()
	return &Logger{zl: zl}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// ParseLevel maps a level name to a zerolog level. Unknown names mean info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Debug logs verbose diagnostics.
func (l *Logger) Debug(msg string) {
	l.zl.Debug().Msg(msg)
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	l.zl.Info().Msg(msg)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	l.zl.Warn().Msg(msg)
}

// Error logs error messages, attaching err when given.
func (l *Logger) Error(msg string, err ...error) {
	ev := l.zl.Error()
	if len(err) > 0 && err[0] != nil {
		ev = ev.Err(err[0])
	}
	ev.Msg(msg)
}

// Event logs a simulation event at info level with its structured fields.
func (l *Logger) Event(eventType string, actorID string, fields map[string]any) {
	l.zl.Info().Str("event", eventType).Str("actor", actorID).Fields(fields).Msg(eventType)
}

// Trace logs a high-volume simulation event (movement, idling) at debug level.
func (l *Logger) Trace(eventType string, actorID string, fields map[string]any) {
	l.zl.Debug().Str("event", eventType).Str("actor", actorID).Fields(fields).Msg(eventType)
}
