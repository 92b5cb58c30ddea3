package handlers

import (
	"net/http"
	"sync"
	"time"

	"brainbox/internal/provider"
)

var (
	startTime time.Time
	startOnce sync.Once
)

// InitStartTime initializes the server start time.
// Should be called when the server starts.
func InitStartTime() {
	startOnce.Do(func() {
		startTime = time.Now()
	})
}

// StateReporter reports the last known backend state.
type StateReporter interface {
	State() provider.ProviderState
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  int64  `json:"uptime"`
	Backend string `json:"backend,omitempty"`
}

// HealthHandler returns a health check handler. The gateway is healthy as
// long as it serves requests; the backend status is informational.
func HealthHandler(version string, states StateReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(0)
		if !startTime.IsZero() {
			uptime = int64(time.Since(startTime).Seconds())
		}

		resp := HealthResponse{
			Status:  "ok",
			Version: version,
			Uptime:  uptime,
		}
		if states != nil {
			resp.Backend = string(states.State().Status)
		}
		SendJSON(w, http.StatusOK, resp)
	}
}

// BackendStatusHandler returns the full backend state.
func BackendStatusHandler(states StateReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if states == nil {
			SendError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "backend monitor is disabled")
			return
		}
		SendJSON(w, http.StatusOK, states.State())
	}
}
