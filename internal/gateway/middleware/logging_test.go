package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogging_AssignsRequestID(t *testing.T) {
	var seen string
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.Write([]byte("hello"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
}

func TestLogging_KeepsIncomingRequestID(t *testing.T) {
	var seen string
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", nil)
	req.Header.Set(RequestIDHeader, "turn-42")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "turn-42", seen)
	assert.Equal(t, "turn-42", w.Header().Get(RequestIDHeader))
}

func TestRequestID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, RequestID(req.Context()))
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"X-Forwarded-For", map[string]string{"X-Forwarded-For": "192.168.1.1"}, "192.168.1.1"},
		{"X-Forwarded-For chain", map[string]string{"X-Forwarded-For": "192.168.1.1, 10.0.0.2"}, "192.168.1.1"},
		{"X-Real-IP", map[string]string{"X-Real-IP": "10.0.0.1"}, "10.0.0.1"},
		{"RemoteAddr fallback", nil, "127.0.0.1:12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "127.0.0.1:12345"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestStatusRecorder(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}

	rec.WriteHeader(http.StatusNotFound)
	rec.Write([]byte("missing"))

	assert.Equal(t, http.StatusNotFound, rec.status)
	assert.Equal(t, 7, rec.bytes)
}
