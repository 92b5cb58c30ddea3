package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"brainbox/internal/gateway/handlers"
	"brainbox/pkg/logger"
)

// Recovery turns a handler panic into a 500 JSON error.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}

			logger.Error().
				Str("panic", fmt.Sprint(v)).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote", getClientIP(r)).
				Bytes("stack", debug.Stack()).
				Msg("Handler panic recovered")

			handlers.SendError(w, http.StatusInternalServerError, handlers.ErrCodeInternalError, "internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}
