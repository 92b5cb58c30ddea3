// Package handlers provides the HTTP handlers of the gateway.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"brainbox/internal/runner"
)

// maxBodyBytes bounds request bodies. A full 10-message history fits easily.
const maxBodyBytes = 1 << 20

// Error codes carried in ErrorDetail.Code.
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"
	ErrCodeBackendError       = "BACKEND_ERROR"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one error. Kind is set only for failed turns.
type ErrorDetail struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Kind    runner.FailureKind `json:"kind,omitempty"`
}

// SendJSON writes data as JSON with the given status. A nil data writes
// headers only.
func SendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// SendError writes an ErrorResponse.
func SendError(w http.ResponseWriter, status int, code, message string) {
	SendJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// SendFailure writes a failed turn, keeping its kind so clients can tell a
// timeout from an exhausted crash retry.
func SendFailure(w http.ResponseWriter, result runner.TurnResult) {
	status, code := FailureStatus(result.Kind)
	SendJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: result.Message, Kind: result.Kind}})
}

var errTrailingData = errors.New("unexpected data after JSON body")

// decodeJSON reads exactly one JSON value into v. Unknown fields and
// oversized bodies are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}
