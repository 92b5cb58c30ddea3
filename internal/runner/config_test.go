package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"brainbox/internal/config"
)

func TestSettingsFromConfig(t *testing.T) {
	s := SettingsFromConfig(config.OrchestratorConfig{
		HistoryWindow:   6,
		ComplexTimeout:  time.Minute,
		ComplexKeywords: []string{"plan"},
		CrashBackoff:    3 * time.Second,
	})

	assert.Equal(t, 6, s.HistoryWindow)
	assert.Equal(t, time.Minute, s.Timeout.Complex)
	assert.Equal(t, 120*time.Second, s.Timeout.Simple)
	assert.Equal(t, []string{"plan"}, s.Timeout.Keywords)
	assert.Equal(t, 100, s.Timeout.Length)
	assert.Equal(t, 500*time.Millisecond, s.StabilizeDelay)
	assert.Equal(t, 3*time.Second, s.CrashBackoff)
	assert.Equal(t, DefaultCancelGrace, s.CancelGrace)
}

func TestSettingsFromConfig_Zero(t *testing.T) {
	assert.Equal(t, DefaultSettings(), SettingsFromConfig(config.OrchestratorConfig{}))
}
