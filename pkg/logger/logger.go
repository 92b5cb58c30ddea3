// Package logger holds the process-wide zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error, off
	Format string `json:"format" mapstructure:"format"` // console, json
	File   string `json:"file" mapstructure:"file"`     // extra JSON sink, empty for none
}

var (
	mu     sync.RWMutex
	global = newLogger(os.Stderr)
	file   *os.File
)

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// parseLevel accepts zerolog level names plus "warning" and "off".
// Anything unrecognised is info.
func parseLevel(level string) zerolog.Level {
	switch s := strings.ToLower(strings.TrimSpace(level)); s {
	case "warning":
		return zerolog.WarnLevel
	case "off":
		return zerolog.Disabled
	case "":
		return zerolog.InfoLevel
	default:
		if l, err := zerolog.ParseLevel(s); err == nil && l != zerolog.NoLevel {
			return l
		}
		return zerolog.InfoLevel
	}
}

// Init replaces the global logger. Console format only affects stderr; the
// optional file always receives JSON lines. A file opened by an earlier
// Init is closed.
func Init(config LogConfig) error {
	var stderr io.Writer = os.Stderr
	if strings.EqualFold(config.Format, "console") {
		stderr = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}
	}

	var f *os.File
	out := stderr
	if config.File != "" {
		var err error
		f, err = os.OpenFile(config.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("open log file %s: %w", config.File, err)
		}
		out = zerolog.MultiLevelWriter(stderr, f)
	}

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
	}
	file = f
	zerolog.SetGlobalLevel(parseLevel(config.Level))
	global = newLogger(out)
	return nil
}

// SetOutput points the global logger at w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	global = newLogger(w)
}

// Get returns a copy of the global logger.
func Get() *zerolog.Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	return &l
}

// Component returns a child logger tagged with component=name.
func Component(name string) *zerolog.Logger {
	l := Get().With().Str("component", name).Logger()
	return &l
}

// Close closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

func Debug() *zerolog.Event { return Get().Debug() }
func Info() *zerolog.Event  { return Get().Info() }
func Warn() *zerolog.Event  { return Get().Warn() }
func Error() *zerolog.Event { return Get().Error() }
