package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainbox/internal/runner"
)

func TestSendJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		data       any
		wantStatus int
		wantBody   string
	}{
		{
			name:       "send object",
			status:     http.StatusOK,
			data:       map[string]string{"key": "value"},
			wantStatus: http.StatusOK,
			wantBody:   `{"key":"value"}`,
		},
		{
			name:       "send nil",
			status:     http.StatusNoContent,
			data:       nil,
			wantStatus: http.StatusNoContent,
			wantBody:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			SendJSON(w, tt.status, tt.data)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantBody, strings.TrimSpace(w.Body.String()))
		})
	}
}

func TestSendError(t *testing.T) {
	w := httptest.NewRecorder()
	SendError(w, http.StatusNotFound, ErrCodeNotFound, "task not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "task not found", resp.Error.Message)
}

func TestSendFailure(t *testing.T) {
	w := httptest.NewRecorder()
	SendFailure(w, runner.Failure(runner.FailureCrashExhausted, "model kept crashing"))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":{"code":"SERVICE_UNAVAILABLE","message":"model kept crashing","kind":"transient_backend_crash_exhausted"}}`, w.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Text string `json:"text"`
	}
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", `{"text":"a"}`, false},
		{"unknown field", `{"text":"a","x":1}`, true},
		{"trailing data", `{"text":"a"}{"text":"b"}`, true},
		{"too large", `{"text":"` + strings.Repeat("a", maxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.input))
			var b body
			err := decodeJSON(httptest.NewRecorder(), r, &b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a", b.Text)
		})
	}
}
