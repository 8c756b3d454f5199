package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type materializeResult struct {
	Year    int `json:"year"`
	Month   int `json:"month"`
	Created int `json:"created"`
}

func (s *Server) handleDashboardMonthly(w http.ResponseWriter, r *http.Request, user core.User) error {
	year, month, err := yearMonth(r, time.Now())
	if err != nil {
		return err
	}
	d, err := s.svc.Dashboards.Monthly(r.Context(), user.ID, year, month)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, d)
	return nil
}

func (s *Server) handleDashboardYearly(w http.ResponseWriter, r *http.Request, user core.User) error {
	year, _, err := yearMonth(r, time.Now())
	if err != nil {
		return err
	}
	d, err := s.svc.Dashboards.Yearly(r.Context(), user.ID, year)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, d)
	return nil
}

func (s *Server) handleDashboardCategories(w http.ResponseWriter, r *http.Request, user core.User) error {
	year, month, err := yearMonth(r, time.Now())
	if err != nil {
		return err
	}
	d, err := s.svc.Dashboards.Categories(r.Context(), user.ID, year, month)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, d)
	return nil
}

// handleMaterialize writes the recurrence occurrences of the month. Running
// it twice creates nothing the second time.
func (s *Server) handleMaterialize(w http.ResponseWriter, r *http.Request, user core.User) error {
	if s.svc.Recurring == nil {
		return badRequest("materialization is not available")
	}
	year, month, err := yearMonth(r, time.Now())
	if err != nil {
		return err
	}
	n, err := s.svc.Recurring.MaterializeMonth(r.Context(), user.ID, year, month)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, materializeResult{Year: year, Month: month, Created: n})
	return nil
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the database before reporting ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	status, code := "ready", http.StatusOK
	if s.svc.Store == nil {
		checks["database"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else if err := s.svc.Store.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		checks["database"] = "unreachable"
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
