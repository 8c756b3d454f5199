package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"fintrack/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type fakeSheetsAPI struct {
	mu       sync.Mutex
	titles   []string
	added    []string
	updates  map[string][][]any
	requests []string
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/spreadsheets/sheet-1"):
		ss := gsheet.Spreadsheet{}
		for _, title := range f.titles {
			ss.Sheets = append(ss.Sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{Title: title}})
		}
		json.NewEncoder(w).Encode(ss)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			if rq.AddSheet != nil {
				f.added = append(f.added, rq.AddSheet.Properties.Title)
				f.titles = append(f.titles, rq.AddSheet.Properties.Title)
			}
		}
		w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/values/"):
		if r.URL.Query().Get("valueInputOption") != "USER_ENTERED" {
			http.Error(w, "missing valueInputOption", http.StatusBadRequest)
			return
		}
		var vr gsheet.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		rng := r.URL.Path[strings.Index(r.URL.Path, "/values/")+len("/values/"):]
		f.updates[rng] = vr.Values
		w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, api *fakeSheetsAPI) *Client {
	t.Helper()
	api.updates = map[string][][]any{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(),
		Options{SpreadsheetID: "sheet-1", DashboardSheetName: "Dashboard"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func yearly(year int) core.DashboardYearly {
	d := core.DashboardYearly{Period: core.YearPeriod{Year: year}}
	for m := 1; m <= 12; m++ {
		d.MonthlyData = append(d.MonthlyData, core.MonthTotals{
			Month: m, MonthName: core.MonthName(m), TotalIncome: core.Cents(500000), TotalExpenses: core.Cents(123456),
			TotalSaved: core.Cents(376544),
		})
	}
	return d
}

func TestExportYearCreatesSheet(t *testing.T) {
	api := &fakeSheetsAPI{titles: []string{"Sheet1"}}
	c := newTestClient(t, api)

	ref, err := c.ExportYear(context.Background(), yearly(2024))
	if err != nil {
		t.Fatalf("ExportYear() error = %v", err)
	}
	if ref != "'2024 Dashboard'!A1:D15" {
		t.Errorf("ref = %q", ref)
	}
	if len(api.added) != 1 || api.added[0] != "2024 Dashboard" {
		t.Errorf("added sheets = %v", api.added)
	}

	rows, ok := api.updates[ref]
	if !ok {
		t.Fatalf("no update for %s; requests = %v", ref, api.requests)
	}
	if len(rows) != 15 {
		t.Fatalf("rows = %d, want 15", len(rows))
	}
	if rows[0][0] != "Month" || rows[12][0] != "December" {
		t.Errorf("unexpected layout: first=%v last month=%v", rows[0], rows[12])
	}
	if rows[1][2] != 1234.56 {
		t.Errorf("January expenses = %v, want 1234.56", rows[1][2])
	}
}

func TestExportYearReusesExistingSheet(t *testing.T) {
	api := &fakeSheetsAPI{titles: []string{"2024 Dashboard"}}
	c := newTestClient(t, api)

	if _, err := c.ExportYear(context.Background(), yearly(2024)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ExportYear(context.Background(), yearly(2024)); err != nil {
		t.Fatal(err)
	}
	if len(api.added) != 0 {
		t.Errorf("existing sheet was added again: %v", api.added)
	}
	if len(api.updates) != 1 {
		t.Errorf("updates = %v, want one overwritten range", api.updates)
	}
}

func TestExportYearRejectsInvalidYear(t *testing.T) {
	c := newTestClient(t, &fakeSheetsAPI{})
	if _, err := c.ExportYear(context.Background(), core.DashboardYearly{}); err == nil {
		t.Fatal("expected error for year 0")
	}
}

func TestNewValidatesOptions(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{"missing spreadsheet", Options{}, "missing GOOGLE_SPREADSHEET_ID"},
		{"missing credentials", Options{SpreadsheetID: "x"}, "missing service account credentials"},
		{"unreadable file", Options{SpreadsheetID: "x", ServiceAccountFile: filepath.Join(t.TempDir(), "nope.json")}, "read service account file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCredentialsJSONPrefersInline(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(file, []byte(`{"from":"file"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	b, err := credentialsJSON(context.Background(), Options{ServiceAccountJSON: `{"from":"inline"}`, ServiceAccountFile: file})
	if err != nil || string(b) != `{"from":"inline"}` {
		t.Errorf("credentialsJSON() = %s, %v", b, err)
	}
	b, err = credentialsJSON(context.Background(), Options{ServiceAccountFile: file})
	if err != nil || string(b) != `{"from":"file"}` {
		t.Errorf("credentialsJSON() = %s, %v", b, err)
	}
}

func TestQuoteSheet(t *testing.T) {
	if got := quoteSheet("Bob's 2024"); got != "'Bob''s 2024'" {
		t.Errorf("quoteSheet() = %q", got)
	}
}
