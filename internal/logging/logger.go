// Package logging provides structured logging for the CLI and the browser window.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DebugFunc is the printf-style hook handed to packages that only need
// debug tracing.
type DebugFunc func(format string, args ...interface{})

// Options configures a Logger.
type Options struct {
	// Level is one of zerolog's level names ("debug", "info", ...).
	Level string
	// File enables a rotating log file in addition to the console.
	File string
	// Console is the console writer; defaults to stderr.
	Console io.Writer
}

// Logger wraps zerolog with an optional rotating file sink.
type Logger struct {
	mu   sync.RWMutex
	zlog zerolog.Logger
	file *lumberjack.Logger
}

// New creates a logger writing human-readable lines to the console and,
// when opts.File is set, JSON lines to a rotated file.
func New(opts Options) *Logger {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: "15:04:05",
	}}

	l := &Logger{}
	if opts.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		writers = append(writers, l.file)
	}

	l.zlog = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger().
		Level(ParseLevel(opts.Level))
	return l
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// SetLevel changes the minimum level of this logger.
func (l *Logger) SetLevel(level zerolog.Level) {
	l.mu.Lock()
	l.zlog = l.zlog.Level(level)
	l.mu.Unlock()
}

func (l *Logger) logger() *zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	z := l.zlog
	return &z
}

// Component returns a child logger tagged with a component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{zlog: l.logger().With().Str("component", name).Logger(), file: l.file}
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event { return l.logger().Debug() }

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event { return l.logger().Info() }

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event { return l.logger().Warn() }

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event { return l.logger().Error() }

// Debugf logs a debug message with printf-style formatting.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logger().Debug().Msgf(format, args...)
}

// Infof logs an info message with printf-style formatting.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger().Info().Msgf(format, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logger().Warn().Msgf(format, args...)
}

// Errorf logs an error message with printf-style formatting.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logger().Error().Msgf(format, args...)
}

// DebugFunc adapts Debugf to the hook type packages accept.
func (l *Logger) DebugFunc() DebugFunc {
	return l.Debugf
}

// Close flushes and closes the rotating file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// NopDebug is a DebugFunc that drops its input.
func NopDebug(string, ...interface{}) {}
