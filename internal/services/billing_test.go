package services

import (
	"testing"

	"fintrack/internal/core"
)

func card(closing, due int) core.CreditCard {
	return core.CreditCard{Meta: core.Meta{ID: "card-1"}, Name: "Visa", ClosingDay: closing, DueDay: due}
}

func TestCycleFor(t *testing.T) {
	tests := []struct {
		name            string
		card            core.CreditCard
		year, month     int
		start, end, due string
	}{
		{
			name: "due after closing, same month",
			card: card(5, 15), year: 2024, month: 3,
			start: "2024-02-05", end: "2024-03-05", due: "2024-03-15",
		},
		{
			name: "due before closing, next month",
			card: card(25, 10), year: 2024, month: 3,
			start: "2024-02-25", end: "2024-03-25", due: "2024-04-10",
		},
		{
			name: "equal days, same month",
			card: card(10, 10), year: 2024, month: 3,
			start: "2024-02-10", end: "2024-03-10", due: "2024-03-10",
		},
		{
			name: "closing 31 clamps in february",
			card: card(31, 10), year: 2024, month: 3,
			start: "2024-02-29", end: "2024-03-31", due: "2024-04-10",
		},
		{
			name: "year rollover",
			card: card(20, 5), year: 2024, month: 12,
			start: "2024-11-20", end: "2024-12-20", due: "2025-01-05",
		},
		{
			name: "january starts in previous year",
			card: card(3, 12), year: 2025, month: 1,
			start: "2024-12-03", end: "2025-01-03", due: "2025-01-12",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CycleFor(tt.card, tt.year, tt.month)
			if c.Start.String() != tt.start || c.End.String() != tt.end || c.DueDate.String() != tt.due {
				t.Errorf("CycleFor() = (%s, %s] due %s, want (%s, %s] due %s",
					c.Start, c.End, c.DueDate, tt.start, tt.end, tt.due)
			}
		})
	}
}

func TestCycleContaining(t *testing.T) {
	c := card(25, 10)
	tests := []struct {
		date      string
		wantYear  int
		wantMonth int
	}{
		{"2024-03-25", 2024, 3}, // closing day belongs to the closing cycle
		{"2024-03-26", 2024, 4},
		{"2024-03-01", 2024, 3},
		{"2024-12-31", 2025, 1},
		{"2024-02-26", 2024, 3},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			got := CycleContaining(c, core.MustDate(tt.date))
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("CycleContaining(%s) = %d-%02d, want %d-%02d", tt.date, got.Year, got.Month, tt.wantYear, tt.wantMonth)
			}
			if !got.Contains(core.MustDate(tt.date)) {
				t.Errorf("cycle %d-%02d should contain %s", got.Year, got.Month, tt.date)
			}
		})
	}
}

func TestCycles_NoGapNoOverlap(t *testing.T) {
	for _, closing := range []int{1, 5, 15, 28, 29, 30, 31} {
		c := card(closing, 10)
		d := core.MustDate("2023-12-01")
		end := core.MustDate("2025-03-01")
		for !d.After(end) {
			owner := CycleContaining(c, d)
			matches := 0
			y, m := core.AddMonths(owner.Year, owner.Month, -2)
			for k := 0; k < 5; k++ {
				if CycleFor(c, y, m).Contains(d) {
					matches++
				}
				y, m = core.AddMonths(y, m, 1)
			}
			if matches != 1 {
				t.Fatalf("closing %d: %s belongs to %d cycles", closing, d, matches)
			}
			d = core.Date{Time: d.AddDate(0, 0, 1)}
		}

		y, m := 2024, 1
		for k := 0; k < 14; k++ {
			ny, nm := core.AddMonths(y, m, 1)
			if !CycleFor(c, y, m).End.Equal(CycleFor(c, ny, nm).Start) {
				t.Fatalf("closing %d: cycles %d-%02d and %d-%02d do not share a boundary", closing, y, m, ny, nm)
			}
			y, m = ny, nm
		}
	}
}

func TestCycleDueIn(t *testing.T) {
	tests := []struct {
		name      string
		card      core.CreditCard
		wantMonth int
		wantDue   string
	}{
		{"due before closing pays previous cycle", card(25, 10), 2, "2024-03-10"},
		{"due after closing pays same cycle", card(5, 15), 3, "2024-03-15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CycleDueIn(tt.card, 2024, 3)
			if c.Month != tt.wantMonth || c.DueDate.String() != tt.wantDue {
				t.Errorf("CycleDueIn() = month %d due %s, want month %d due %s", c.Month, c.DueDate, tt.wantMonth, tt.wantDue)
			}
			if !c.DueDate.InMonth(2024, 3) {
				t.Errorf("due date %s not in March", c.DueDate)
			}
		})
	}
}
