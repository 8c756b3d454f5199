package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

var _ sheets.DashboardExporter = (*Store)(nil)

// Store keeps exported dashboards in memory, keyed by sheet name.
type Store struct {
	mu     sync.Mutex
	base   string
	sheets map[string][][]any
	writes int
}

func New(base string) *Store {
	return &Store{base: base, sheets: map[string][][]any{}}
}

// ExportYear replaces the rows of the year's sheet.
func (s *Store) ExportYear(_ context.Context, d core.DashboardYearly) (string, error) {
	if err := core.ValidateMonth(d.Period.Year, 1); err != nil {
		return "", err
	}
	rows := sheets.YearRows(d)
	name := sheets.SheetName(s.base, d.Period.Year)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[name] = rows
	s.writes++
	return fmt.Sprintf("mem:%s!A1:D%d", name, len(rows)), nil
}

// Rows returns a copy of the rows last written to sheet name.
func (s *Store) Rows(name string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.sheets[name]...)
}

// Writes counts successful exports.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
