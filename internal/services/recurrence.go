package services

import (
	"time"

	"fintrack/internal/core"
)

// ExpandRule decides whether rule has an occurrence in (year, month) and
// computes it. The candidate date is the rule's day of month clamped to the
// month length; it must fall inside [StartDate, EndDate].
func ExpandRule(rule core.Rule, year, month int) (core.Occurrence, bool) {
	if !rule.IsActive {
		return core.Occurrence{}, false
	}
	date := core.ResolveDay(year, month, rule.DayOfMonth)
	if date.Before(rule.StartDate) {
		return core.Occurrence{}, false
	}
	if !rule.EndDate.IsZero() && date.After(rule.EndDate) {
		return core.Occurrence{}, false
	}
	return core.Occurrence{RuleID: rule.ID, Date: date, Amount: rule.Amount}, true
}

// ExpandRange lists the occurrences of rule for every month from the month
// of from to the month of to, inclusive.
func ExpandRange(rule core.Rule, from, to core.Date) []core.Occurrence {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil
	}
	var out []core.Occurrence
	y, m := from.Year(), from.Month()
	for {
		if occ, ok := ExpandRule(rule, y, m); ok {
			out = append(out, occ)
		}
		if y == to.Year() && m == to.Month() {
			return out
		}
		y, m = core.AddMonths(y, m, 1)
	}
}

// DueOccurrence returns the occurrence of now's month when its date is not
// after now's date.
func DueOccurrence(rule core.Rule, now time.Time) (core.Occurrence, bool) {
	today := core.DateOf(now)
	occ, ok := ExpandRule(rule, today.Year(), today.Month())
	if !ok || occ.Date.After(today) {
		return core.Occurrence{}, false
	}
	return occ, true
}
