package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnavailable wraps transport failures: the request got no response.
	ErrUnavailable = errors.New("portal API unavailable")
	// ErrUnauthorized matches any *Error with status 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound matches any *Error with status 404.
	ErrNotFound = errors.New("not found")
)

// Error is a rejection reported by the server (non-2xx reply).
type Error struct {
	StatusCode int
	// Detail is the human-readable reason from the {"detail": ...} body,
	// or the status text when the body carried none.
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Detail)
}

// Is lets callers test rejections with errors.Is(err, ErrUnauthorized).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Reason extracts the message to show a user for any API failure.
func Reason(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	if errors.Is(err, ErrUnavailable) {
		return "Network error. Please try again."
	}
	return err.Error()
}

// parseError builds an *Error from a rejected response body. A JSON body
// without a usable detail falls back to the status text; a non-JSON body is
// shown as is.
func parseError(status int, body []byte) *Error {
	detail := strings.TrimSpace(string(body))
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		detail = ""
		var s string
		switch raw := bytes.TrimSpace(payload.Detail); {
		case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		case json.Unmarshal(raw, &s) == nil:
			detail = strings.TrimSpace(s)
		default:
			// validation errors come back as a list of objects
			detail = string(raw)
		}
	}
	if detail == "" {
		detail = http.StatusText(status)
	}
	return &Error{StatusCode: status, Detail: detail}
}
