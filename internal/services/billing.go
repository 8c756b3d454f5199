package services

import "fintrack/internal/core"

// BillingCycle is the window of one credit card bill. It is named after the
// month of its closing date. Start is exclusive, End inclusive.
type BillingCycle struct {
	Year    int
	Month   int
	Start   core.Date
	End     core.Date
	DueDate core.Date
}

// Contains reports whether d belongs to the cycle.
func (c BillingCycle) Contains(d core.Date) bool {
	return d.After(c.Start) && !d.After(c.End)
}

// FirstDay is the first date inside the cycle.
func (c BillingCycle) FirstDay() core.Date {
	return core.Date{Time: c.Start.AddDate(0, 0, 1)}
}

// CycleFor returns the cycle of card that closes in (year, month).
// When the due day precedes the closing day the bill is due the following
// month, otherwise in the closing month.
func CycleFor(card core.CreditCard, year, month int) BillingCycle {
	py, pm := core.AddMonths(year, month, -1)
	c := BillingCycle{
		Year:  year,
		Month: month,
		Start: core.ResolveDay(py, pm, card.ClosingDay),
		End:   core.ResolveDay(year, month, card.ClosingDay),
	}
	if card.DueDay < card.ClosingDay {
		ny, nm := core.AddMonths(year, month, 1)
		c.DueDate = core.ResolveDay(ny, nm, card.DueDay)
	} else {
		c.DueDate = core.ResolveDay(year, month, card.DueDay)
	}
	return c
}

// CycleContaining returns the cycle an expense dated d is attributed to.
func CycleContaining(card core.CreditCard, d core.Date) BillingCycle {
	if !d.After(core.ResolveDay(d.Year(), d.Month(), card.ClosingDay)) {
		return CycleFor(card, d.Year(), d.Month())
	}
	ny, nm := core.AddMonths(d.Year(), d.Month(), 1)
	return CycleFor(card, ny, nm)
}

// CycleDueIn returns the single cycle of card whose due date falls in
// (year, month).
func CycleDueIn(card core.CreditCard, year, month int) BillingCycle {
	if card.DueDay < card.ClosingDay {
		py, pm := core.AddMonths(year, month, -1)
		return CycleFor(card, py, pm)
	}
	return CycleFor(card, year, month)
}
