package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets/memory"
)

type fakeDashboards struct {
	calls []string
	err   error
}

func (f *fakeDashboards) Yearly(_ context.Context, userID string, year int) (core.DashboardYearly, error) {
	f.calls = append(f.calls, userID)
	if f.err != nil {
		return core.DashboardYearly{}, f.err
	}
	d := core.DashboardYearly{Period: core.YearPeriod{Year: year}}
	for m := 1; m <= 12; m++ {
		d.MonthlyData = append(d.MonthlyData, core.MonthTotals{Month: m, MonthName: core.MonthName(m)})
	}
	return d, nil
}

type fakeUsers map[string]core.User

func (f fakeUsers) ListUserIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(f))
	for id := range f {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f fakeUsers) GetUser(_ context.Context, id string) (core.User, error) {
	u, ok := f[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

var testUsers = fakeUsers{
	"u1": {ID: "u1", Email: "ana@example.com"},
	"u2": {ID: "u2", Email: "bo@example.com"},
}

func TestHandleLedgerChanged(t *testing.T) {
	tests := []struct {
		name       string
		onlyEmail  string
		msg        *amqp.LedgerChangedMessage
		wantWrites int
	}{
		{"exports the message year", "", amqp.NewLedgerChangedMessage("u1", 2024, 3, amqp.ReasonExpense), 1},
		{"filter matches case-insensitively", "ANA@example.com", amqp.NewLedgerChangedMessage("u1", 2024, 3, amqp.ReasonExpense), 1},
		{"filter skips other users", "ana@example.com", amqp.NewLedgerChangedMessage("u2", 2024, 3, amqp.ReasonExpense), 0},
		{"unknown user is acknowledged", "ana@example.com", amqp.NewLedgerChangedMessage("ghost", 2024, 3, amqp.ReasonExpense), 0},
		{"invalid period is dropped", "", amqp.NewLedgerChangedMessage("u1", 2024, 13, amqp.ReasonExpense), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New("Dashboard")
			w := NewExportWorker(&fakeDashboards{}, testUsers, store, tt.onlyEmail)

			if err := w.HandleLedgerChanged(context.Background(), tt.msg); err != nil {
				t.Fatalf("HandleLedgerChanged() error = %v", err)
			}
			if store.Writes() != tt.wantWrites {
				t.Errorf("writes = %d, want %d", store.Writes(), tt.wantWrites)
			}
			if tt.wantWrites > 0 && len(store.Rows("2024 Dashboard")) != 15 {
				t.Errorf("2024 sheet rows = %d", len(store.Rows("2024 Dashboard")))
			}
		})
	}
}

func TestHandleLedgerChangedReturnsExportErrors(t *testing.T) {
	boom := errors.New("storage down")
	w := NewExportWorker(&fakeDashboards{err: boom}, testUsers, memory.New("Dashboard"), "")

	err := w.HandleLedgerChanged(context.Background(), amqp.NewLedgerChangedMessage("u1", 2024, 3, amqp.ReasonIncome))
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
}

func TestStartupExport(t *testing.T) {
	dashboards := &fakeDashboards{}
	store := memory.New("Dashboard")
	w := NewExportWorker(dashboards, testUsers, store, "bo@example.com")
	w.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	if err := w.StartupExport(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(dashboards.calls) != 1 || dashboards.calls[0] != "u2" {
		t.Errorf("computed dashboards for %v, want [u2]", dashboards.calls)
	}
	if len(store.Rows("2025 Dashboard")) == 0 {
		t.Error("current year was not exported")
	}
}
