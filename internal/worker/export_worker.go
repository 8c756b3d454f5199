package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

// YearlyDashboards computes the yearly read model of a user.
type YearlyDashboards interface {
	Yearly(ctx context.Context, userID string, year int) (core.DashboardYearly, error)
}

// UserDirectory resolves the users whose dashboards are exported.
type UserDirectory interface {
	ListUserIDs(ctx context.Context) ([]string, error)
	GetUser(ctx context.Context, id string) (core.User, error)
}

// ExportWorker mirrors yearly dashboards to a spreadsheet whenever a user's
// ledger changes.
type ExportWorker struct {
	dashboards YearlyDashboards
	users      UserDirectory
	exporter   sheets.DashboardExporter
	// onlyEmail restricts exports to one user; empty exports everyone.
	onlyEmail string
	now       func() time.Time
}

func NewExportWorker(dashboards YearlyDashboards, users UserDirectory, exporter sheets.DashboardExporter, onlyEmail string) *ExportWorker {
	return &ExportWorker{
		dashboards: dashboards,
		users:      users,
		exporter:   exporter,
		onlyEmail:  strings.TrimSpace(onlyEmail),
		now:        time.Now,
	}
}

// HandleLedgerChanged re-exports the year of the changed month. Messages for
// unknown or filtered-out users are acknowledged without exporting.
func (w *ExportWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Processing ledger changed message",
		"user_id", msg.UserID,
		"year", msg.Year,
		"month", msg.Month,
		"reason", msg.Reason)

	if err := core.ValidateMonth(msg.Year, msg.Month); err != nil {
		slog.WarnContext(ctx, "Dropping message with invalid period",
			"user_id", msg.UserID,
			"year", msg.Year,
			"month", msg.Month)
		return nil
	}

	ok, err := w.selected(ctx, msg.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return w.export(ctx, msg.UserID, msg.Year)
}

// StartupExport exports the current year of every selected user. It recovers
// from messages missed while the worker was down.
func (w *ExportWorker) StartupExport(ctx context.Context) error {
	userIDs, err := w.users.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users for startup export: %w", err)
	}

	year := w.now().Year()
	successCount, errorCount := 0, 0
	for _, id := range userIDs {
		ok, err := w.selected(ctx, id)
		if err != nil {
			errorCount++
			continue
		}
		if !ok {
			continue
		}
		if err := w.export(ctx, id, year); err != nil {
			slog.ErrorContext(ctx, "Failed to export dashboard during startup",
				"user_id", id, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"year", year,
		"exported", successCount,
		"errors", errorCount)
	return nil
}

func (w *ExportWorker) selected(ctx context.Context, userID string) (bool, error) {
	if w.onlyEmail == "" {
		return true, nil
	}
	u, err := w.users.GetUser(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Skipping export for unknown user", "user_id", userID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get user: %w", err)
	}
	return strings.EqualFold(u.Email, w.onlyEmail), nil
}

func (w *ExportWorker) export(ctx context.Context, userID string, year int) error {
	d, err := w.dashboards.Yearly(ctx, userID, year)
	if err != nil {
		return fmt.Errorf("compute yearly dashboard: %w", err)
	}
	ref, err := w.exporter.ExportYear(ctx, d)
	if err != nil {
		return fmt.Errorf("export dashboard: %w", err)
	}
	slog.InfoContext(ctx, "Successfully exported dashboard",
		"user_id", userID,
		"year", year,
		"sheets_ref", ref,
		"total_saved_cents", d.Summary.TotalSaved.Cents)
	return nil
}
