package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Error taxonomy shared by the session, HTTP and resource layers
var (
	// Transport errors
	ErrNetwork = errors.New("network error")

	// Authentication errors
	ErrAuthExpired        = errors.New("authentication expired")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Payload errors
	ErrInvalidResponse = errors.New("invalid response")
	ErrNotFound        = errors.New("not found")
	ErrCreateFailed    = errors.New("create failed")
	ErrUpdateFailed    = errors.New("update failed")
	ErrDeleteFailed    = errors.New("delete failed")
)

// HTTPError is a non-2xx response that reached the client.
type HTTPError struct {
	Status  int
	Body    []byte
	Message string // server supplied message, if the body carried one
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.Status, http.StatusText(e.Status))
}

// NewHTTPError builds an HTTPError, lifting "message" or "error" out of a JSON body.
func NewHTTPError(status int, body []byte) *HTTPError {
	return &HTTPError{
		Status:  status,
		Body:    body,
		Message: ServerMessage(body),
	}
}

// ValidationError carries a server-reported validation message.
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// ServerMessage extracts the human readable message of a backend body.
func ServerMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"message", "error"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
			return strings.TrimSpace(v.Str)
		}
	}
	return ""
}

// Status returns the HTTP status carried by err, or 0.
func Status(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// Message renders err as the text a view would show to a user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	switch {
	case errors.Is(err, ErrAuthExpired):
		return "Authentication failed. Please login again."
	case errors.Is(err, ErrNetwork):
		return "Network error. Please check your internet connection."
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Message != "" {
			return httpErr.Message
		}
		switch httpErr.Status {
		case http.StatusRequestEntityTooLarge:
			return "File too large. Please reduce file size and try again."
		case http.StatusInternalServerError:
			return "Server error. Please try again later."
		}
	}
	return err.Error()
}
