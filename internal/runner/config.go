package runner

import (
	"time"

	"brainbox/internal/config"
)

// Settings holds the tunables of the attempt loop. They can be swapped while
// the runner serves turns; a turn uses the settings it started with.
type Settings struct {
	HistoryWindow  int
	Timeout        TimeoutPolicy
	StabilizeDelay time.Duration
	CrashBackoff   time.Duration
	CancelGrace    time.Duration
}

// DefaultSettings returns the default tunables.
func DefaultSettings() Settings {
	return Settings{
		HistoryWindow:  DefaultHistoryWindow,
		Timeout:        DefaultTimeoutPolicy(),
		StabilizeDelay: 500 * time.Millisecond,
		CrashBackoff:   time.Second,
		CancelGrace:    DefaultCancelGrace,
	}
}

// SettingsFromConfig builds settings from the orchestrator config section.
// Zero values keep their defaults.
func SettingsFromConfig(c config.OrchestratorConfig) Settings {
	s := DefaultSettings()
	if c.HistoryWindow > 0 {
		s.HistoryWindow = c.HistoryWindow
	}
	if c.ComplexTimeout > 0 {
		s.Timeout.Complex = c.ComplexTimeout
	}
	if c.SimpleTimeout > 0 {
		s.Timeout.Simple = c.SimpleTimeout
	}
	if len(c.ComplexKeywords) > 0 {
		s.Timeout.Keywords = c.ComplexKeywords
	}
	if c.ComplexLength > 0 {
		s.Timeout.Length = c.ComplexLength
	}
	if c.StabilizeDelay > 0 {
		s.StabilizeDelay = c.StabilizeDelay
	}
	if c.CrashBackoff > 0 {
		s.CrashBackoff = c.CrashBackoff
	}
	if c.CancelGrace > 0 {
		s.CancelGrace = c.CancelGrace
	}
	return s
}
