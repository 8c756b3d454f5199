package http

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/trace"
)

// Error codes of the JSON error envelope.
const (
	CodeValidation      = "validation_error"
	CodeDerivation      = "derivation_error"
	CodeBadRequest      = "bad_request"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeUnauthenticated = "unauthenticated"
	CodeRateLimited     = "rate_limited"
	CodeInternal        = "internal_error"
)

const internalMessage = "internal error, please retry later"

// requestError is a malformed request the domain never saw.
type requestError struct {
	status int
	code   string
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{status: http.StatusBadRequest, code: CodeBadRequest, msg: msg}
}

var errNotFoundRoute = &requestError{status: http.StatusNotFound, code: CodeNotFound, msg: "route not found"}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// classify maps an error to its HTTP status and envelope. It is the only
// place where domain errors meet status codes.
func classify(err error) (int, errorDetail) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return reqErr.status, errorDetail{Code: reqErr.code, Message: reqErr.msg}
	}

	detail := errorDetail{Message: err.Error()}
	var fieldErr *core.FieldError
	if errors.As(err, &fieldErr) {
		detail.Field = fieldErr.Field
		detail.Message = fieldErr.Error()
	}

	switch {
	case errors.Is(err, core.ErrValidation):
		detail.Code = CodeValidation
		return http.StatusUnprocessableEntity, detail
	case errors.Is(err, core.ErrDerivation):
		detail.Code = CodeDerivation
		return http.StatusUnprocessableEntity, detail
	case errors.Is(err, core.ErrNotFound):
		detail.Code = CodeNotFound
		return http.StatusNotFound, detail
	case errors.Is(err, core.ErrConflict):
		detail.Code = CodeConflict
		return http.StatusConflict, detail
	case errors.Is(err, core.ErrUnauthenticated):
		return http.StatusUnauthorized, errorDetail{Code: CodeUnauthenticated, Message: "missing, invalid or expired token"}
	default:
		return http.StatusInternalServerError, errorDetail{Code: CodeInternal, Message: internalMessage}
	}
}

// writeError renders err. Server faults are logged and sent to Sentry with
// the request id; their message never reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := classify(err)
	if status >= http.StatusInternalServerError {
		ctx := r.Context()
		log.FromContext(ctx).ErrorContext(ctx, "Request failed",
			log.FieldError, err,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		reportError(r, err)
	}
	writeJSON(w, status, errorBody{Error: detail})
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: errorDetail{
		Code:    CodeRateLimited,
		Message: "rate limit exceeded, please try again later",
	}})
}

func reportError(r *http.Request, err error) {
	hub := sentry.GetHubFromContext(r.Context())
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("request_id", trace.GetRequestID(r.Context()))
		scope.SetRequest(r)
		hub.CaptureException(err)
	})
}
