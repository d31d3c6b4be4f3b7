// Package log is the process-wide structured logger. Call sites use a
// key/value style (log.Info("msg", "key", value)); records are written by
// zerolog as JSON or as human-readable console lines.
package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Config selects level, format and destination of log output.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is auto, json or console. auto picks console on a terminal.
	Format string
	// Output is stderr, stdout, discard or a file path. Files are rotated.
	Output string
	// MaxSizeMB and MaxBackups control file rotation.
	MaxSizeMB  int
	MaxBackups int
}

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stderr, "auto", zerolog.InfoLevel)
	closer io.Closer
)

func newLogger(w io.Writer, format string, level zerolog.Level) zerolog.Logger {
	if format == "console" || (format == "auto" && isTerminal(w)) {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Configure replaces the global logger. A previously opened log file is
// closed once the new logger is installed.
func Configure(cfg Config) error {
	var (
		w    io.Writer
		file io.Closer
	)
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	case "discard", "none":
		w = io.Discard
	default:
		lj := &lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		// Open eagerly so a bad path fails here rather than on first write.
		if _, err := lj.Write(nil); err != nil {
			return err
		}
		w, file = lj, lj
	}

	format := strings.ToLower(cfg.Format)
	if format == "" {
		format = "auto"
	}

	mu.Lock()
	old := closer
	logger = newLogger(w, format, parseLevel(cfg.Level))
	closer = file
	mu.Unlock()

	if old != nil {
		return old.Close()
	}
	return nil
}

// SetOutput sends JSON records to w at debug level. Intended for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger = newLogger(w, "json", zerolog.DebugLevel)
	mu.Unlock()
}

func SetLevel(l Level) {
	mu.Lock()
	logger = logger.Level(parseLevel(string(l)))
	mu.Unlock()
}

// Logger returns the underlying zerolog logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(msg string, kv ...any) {
	l := Logger()
	appendKVs(l.Debug(), kv).Msg(msg)
}

func Info(msg string, kv ...any) {
	l := Logger()
	appendKVs(l.Info(), kv).Msg(msg)
}

func Warn(msg string, kv ...any) {
	l := Logger()
	appendKVs(l.Warn(), kv).Msg(msg)
}

func Error(msg string, err error, kv ...any) {
	l := Logger()
	appendKVs(l.Error().Err(err), kv).Msg(msg)
}

// appendKVs expects key, value, key, value, ... Non-string keys are skipped
// and a trailing key without a value is ignored.
func appendKVs(e *zerolog.Event, kv []any) *zerolog.Event {
	if e == nil {
		return e
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		switch v := kv[i+1].(type) {
		case string:
			e = e.Str(key, v)
		case int:
			e = e.Int(key, v)
		case bool:
			e = e.Bool(key, v)
		case error:
			e = e.AnErr(key, v)
		case time.Duration:
			e = e.Dur(key, v)
		case time.Time:
			e = e.Time(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	return e
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "", "info":
		return zerolog.InfoLevel
	}
	if l, err := zerolog.ParseLevel(s); err == nil {
		return l
	}
	return zerolog.InfoLevel
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
