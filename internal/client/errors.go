package client

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"fintrack/internal/core"
)

var (
	// ErrUnauthenticated is returned on a 401; the stored token is cleared.
	ErrUnauthenticated = core.ErrUnauthenticated

	// ErrRateLimited is returned on a 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrServer is matched by every 5xx response.
	ErrServer = errors.New("server error")
)

// APIError is a non-2xx response carrying the server's error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Field      string
	RequestID  string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
	if e.RequestID != "" {
		msg += " (request " + e.RequestID + ")"
	}
	return msg
}

// Is lets callers test responses against the domain error classes, e.g.
// errors.Is(err, core.ErrValidation) for a 422.
func (e *APIError) Is(target error) bool {
	switch target {
	case core.ErrValidation:
		return e.StatusCode == http.StatusUnprocessableEntity && e.Code != "derivation_error"
	case core.ErrDerivation:
		return e.StatusCode == http.StatusUnprocessableEntity && e.Code == "derivation_error"
	case core.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case core.ErrConflict:
		return e.StatusCode == http.StatusConflict
	case core.ErrUnauthenticated:
		return e.StatusCode == http.StatusUnauthorized
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrServer:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

func parseAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Code:       "http_error",
		Message:    http.StatusText(resp.StatusCode),
		RequestID:  resp.Header.Get("X-Request-ID"),
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Field   string `json:"field"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Field = envelope.Error.Field
	}
	return apiErr
}
