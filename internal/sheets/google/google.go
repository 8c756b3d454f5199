package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Dashboard"); the exporter prefixes the year.
	dashboardBase string
}

// Ensure interface conformance
var _ ports.DashboardExporter = (*Client)(nil)

// Options configures the Sheets client.
type Options struct {
	SpreadsheetID      string
	DashboardSheetName string
	// Service account credentials: inline JSON wins over the file path.
	ServiceAccountJSON string
	ServiceAccountFile string
}

// New creates a Sheets client authenticated with a service account. Passing
// extra client options replaces the service account with those options.
func New(ctx context.Context, opts Options, extra ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	var clientOpts []goption.ClientOption
	if len(extra) == 0 {
		creds, err := credentialsJSON(ctx, opts)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts,
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	}
	clientOpts = append(clientOpts, extra...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID)

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		dashboardBase: opts.DashboardSheetName,
	}, nil
}

// credentialsJSON resolves service account credentials from the options,
// falling back to GOOGLE_APPLICATION_CREDENTIALS.
func credentialsJSON(ctx context.Context, opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.ServiceAccountJSON)
	file := strings.TrimSpace(opts.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportYear writes the yearly dashboard to "<year> <base>", creating the
// sheet on first export. Existing content in the range is overwritten.
func (c *Client) ExportYear(ctx context.Context, d core.DashboardYearly) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := core.ValidateMonth(d.Period.Year, 1); err != nil {
		return "", err
	}

	name := ports.SheetName(c.dashboardBase, d.Period.Year)
	if err := c.ensureSheet(ctx, name); err != nil {
		return "", err
	}

	rows := ports.YearRows(d)
	rng := fmt.Sprintf("%s!A1:D%d", quoteSheet(name), len(rows))
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Exported yearly dashboard",
		"sheet", name,
		"range", rng,
		"rows", len(rows))
	return rng, nil
}

// ensureSheet adds a sheet called name unless the spreadsheet already has one.
func (c *Client) ensureSheet(ctx context.Context, name string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && strings.EqualFold(strings.TrimSpace(sh.Properties.Title), name) {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: name}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", name, err)
	}
	slog.InfoContext(ctx, "Created dashboard sheet", "sheet", name)
	return nil
}

// quoteSheet wraps a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
