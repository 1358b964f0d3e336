package jsonlog

import (
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Level is the severity of a log entry.
type Level int8

const (
	LevelInfo Level = iota
	LevelError
	LevelFatal
	LevelOff
)

// String returns the name written in the "level" field.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return ""
	}
}

// zerologLevel maps our severity levels onto zerolog's.
func (l Level) zerologLevel() zerolog.Level {
	switch l {
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelFatal:
		return zerolog.FatalLevel
	default:
		return zerolog.Disabled
	}
}

// ParseLevel converts a level name (info, error, fatal, off) into a Level.
// Unknown names fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	case "off":
		return LevelOff
	default:
		return LevelInfo
	}
}

// Logger writes one JSON object per line to the output destination. Entries
// below the minimum severity level are discarded. zerolog serializes each
// entry in a single Write call, so concurrent use is safe as long as the
// underlying writer is.
type Logger struct {
	zl       zerolog.Logger
	minLevel Level
}

// NewLogger returns a Logger writing entries of minLevel and above to out.
func NewLogger(out io.Writer, minLevel Level) *Logger {
	zl := zerolog.New(out).
		Level(minLevel.zerologLevel()).
		With().
		Timestamp().
		Logger()

	return &Logger{
		zl:       zl,
		minLevel: minLevel,
	}
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.LevelFieldMarshalFunc = func(l zerolog.Level) string {
		return strings.ToUpper(l.String())
	}
}

// PrintInfo writes message and properties with LevelInfo severity.
func (l *Logger) PrintInfo(message string, properties map[string]string) {
	l.print(LevelInfo, message, properties)
}

// PrintError writes err and properties with LevelError severity, including a
// stack trace.
func (l *Logger) PrintError(err error, properties map[string]string) {
	l.print(LevelError, err.Error(), properties)
}

// PrintFatal writes err and properties with LevelFatal severity and then
// terminates the application.
func (l *Logger) PrintFatal(err error, properties map[string]string) {
	l.print(LevelFatal, err.Error(), properties)
	os.Exit(1)
}

// print emits one entry through zerolog.
func (l *Logger) print(level Level, message string, properties map[string]string) {
	if level < l.minLevel || l.minLevel >= LevelOff {
		return
	}

	// WithLevel (not Fatal) so that zerolog does not exit on our behalf;
	// PrintFatal owns that decision.
	event := l.zl.WithLevel(level.zerologLevel())
	if event == nil {
		return
	}

	if len(properties) > 0 {
		dict := zerolog.Dict()
		for k, v := range properties {
			dict = dict.Str(k, v)
		}
		event = event.Dict("properties", dict)
	}

	// Errors carry the goroutine stack.
	if level >= LevelError {
		event = event.Str("trace", string(debug.Stack()))
	}

	event.Msg(message)
}

// Write satisfies io.Writer so the logger can back the http.Server ErrorLog.
// Everything written this way is logged at ERROR level.
func (l *Logger) Write(message []byte) (n int, err error) {
	l.print(LevelError, strings.TrimRight(string(message), "\n"), nil)
	return len(message), nil
}
