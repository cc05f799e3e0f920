package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// EnsureRequestID returns the request id from header, generating one when absent.
// A generated id is stored on the request so later calls see the same value.
func EnsureRequestID(w http.ResponseWriter, r *http.Request, header string) string {
	if r == nil {
		return ""
	}
	header = strings.TrimSpace(header)
	if header == "" {
		header = "X-Request-ID"
	}
	requestID := strings.TrimSpace(r.Header.Get(header))
	if requestID == "" {
		requestID = uuid.NewString()
		r.Header.Set(header, requestID)
		w.Header().Set(header, requestID)
	}
	return requestID
}
