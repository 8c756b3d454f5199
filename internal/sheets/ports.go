package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// DashboardExporter writes a yearly dashboard to an external sheet.
type DashboardExporter interface {
	// ExportYear replaces the sheet of d's year and returns the written range.
	ExportYear(ctx context.Context, d core.DashboardYearly) (rowRef string, err error)
}

// Header is the first row of every exported dashboard.
var Header = []any{"Month", "Income", "Expenses", "Saved"}

// YearRows lays out a yearly dashboard: the header, one row per month, then
// the year total and the monthly averages. Amounts are euros.
func YearRows(d core.DashboardYearly) [][]any {
	rows := make([][]any, 0, len(d.MonthlyData)+3)
	rows = append(rows, Header)
	for _, m := range d.MonthlyData {
		rows = append(rows, []any{m.MonthName, m.TotalIncome.Euros(), m.TotalExpenses.Euros(), m.TotalSaved.Euros()})
	}
	rows = append(rows,
		[]any{"Total", d.Summary.TotalIncome.Euros(), d.Summary.TotalExpenses.Euros(), d.Summary.TotalSaved.Euros()},
		[]any{"Average", d.Summary.AverageMonthlyIncome.Euros(), d.Summary.AverageMonthlyExpenses.Euros(), ""},
	)
	return rows
}

// SheetName returns "<year> <base>" unless base already starts with a 4-digit year.
func SheetName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "Dashboard"
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
