package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// apiHandler handles an authenticated request; a returned error is rendered
// by writeError.
type apiHandler func(w http.ResponseWriter, r *http.Request, user core.User) error

// recoverer gives every request its own Sentry hub and turns panics into a
// reported 500.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := sentry.CurrentHub().Clone()
		r = r.WithContext(sentry.SetHubOnContext(r.Context(), hub))

		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				hub.RecoverWithContext(r.Context(), rec)
				ctx := r.Context()
				log.FromContext(ctx).ErrorContext(ctx, "Panic while serving request",
					"panic", fmt.Sprint(rec),
					log.FieldPath, r.URL.Path)
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{
					Code: CodeInternal, Message: internalMessage,
				}})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authed resolves the bearer token to a user before calling h.
func (s *Server) authed(h apiHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, core.ErrUnauthenticated)
			return
		}
		user, err := s.svc.Auth.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := r.Context()
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, user.ID))
		if hub := sentry.GetHubFromContext(ctx); hub != nil {
			hub.Scope().SetUser(sentry.User{ID: user.ID})
		}
		r = r.WithContext(ctx)

		if err := h(w, r, user); err != nil {
			writeError(w, r, err)
		}
	}
}

// public adapts a handler that needs no session.
func (s *Server) public(h func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			writeError(w, r, err)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
