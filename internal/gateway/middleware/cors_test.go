package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_AnyOrigin(t *testing.T) {
	for _, allowed := range [][]string{nil, {"*"}} {
		handler := CORS(allowed)(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, corsMethods, w.Header().Get("Access-Control-Allow-Methods"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), RequestIDHeader)
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/chat", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, called)
}

func TestCORS_AllowList(t *testing.T) {
	handler := CORS([]string{"http://localhost:5173"})(okHandler())

	tests := []struct {
		name       string
		origin     string
		method     string
		wantOrigin string
		wantStatus int
	}{
		{"listed origin", "http://localhost:5173", http.MethodGet, "http://localhost:5173", http.StatusOK},
		{"listed preflight", "http://localhost:5173", http.MethodOptions, "http://localhost:5173", http.StatusNoContent},
		{"other origin", "http://evil.example", http.MethodGet, "", http.StatusOK},
		{"no origin", "", http.MethodGet, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/tasks", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantOrigin != "" {
				assert.Equal(t, "Origin", w.Header().Get("Vary"))
			}
		})
	}
}
