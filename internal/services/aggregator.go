package services

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
)

// materializationKey identifies one occurrence of a rule.
type materializationKey struct {
	ruleID string
	year   int
	month  int
}

// ledger is a snapshot prepared for aggregation.
type ledger struct {
	snapshot     *core.Snapshot
	entries      []core.Entry
	materialized map[materializationKey]bool
	bills        map[materializationKey]core.CreditCardBill
	categories   map[string]core.Category
}

// resolved is an entry applied to a concrete date.
type resolved struct {
	entry     core.Entry
	date      core.Date
	amount    core.Money
	projected bool
	occ       core.Occurrence
}

func newLedger(s *core.Snapshot) *ledger {
	l := &ledger{
		snapshot:     s,
		materialized: make(map[materializationKey]bool),
		bills:        make(map[materializationKey]core.CreditCardBill, len(s.Bills)),
		categories:   make(map[string]core.Category, len(s.Categories)),
	}
	for i := range s.Expenses {
		l.entries = append(l.entries, core.ExpenseEntry(&s.Expenses[i]))
	}
	for i := range s.Incomes {
		l.entries = append(l.entries, core.IncomeEntry(&s.Incomes[i]))
	}
	for _, f := range s.FixedExpenses {
		l.entries = append(l.entries, core.FixedExpenseEntry(f))
	}
	for _, f := range s.FixedIncomes {
		l.entries = append(l.entries, core.FixedIncomeEntry(f))
	}
	for _, e := range l.entries {
		if e.Kind == core.OneOff && e.SourceRuleID != "" {
			l.materialized[materializationKey{e.SourceRuleID, e.SourceYear, e.SourceMonth}] = true
		}
	}
	for _, b := range s.Bills {
		l.bills[materializationKey{b.CreditCardID, b.Year, b.Month}] = b
	}
	for _, c := range s.Categories {
		l.categories[c.ID] = c
	}
	return l
}

// resolve applies every entry to the inclusive date window [from, to].
// Recurring entries are skipped for months where they were materialized.
func (l *ledger) resolve(from, to core.Date, keep func(core.Entry) bool) []resolved {
	var out []resolved
	for _, e := range l.entries {
		if !keep(e) {
			continue
		}
		switch e.Kind {
		case core.OneOff:
			if !e.Date.Before(from) && !e.Date.After(to) {
				out = append(out, resolved{entry: e, date: e.Date, amount: e.Amount})
			}
		case core.Recurring:
			for _, occ := range ExpandRange(e.Rule, from, to) {
				if occ.Date.Before(from) || occ.Date.After(to) {
					continue
				}
				if l.materialized[materializationKey{occ.RuleID, occ.Date.Year(), occ.Date.Month()}] {
					continue
				}
				out = append(out, resolved{entry: e, date: occ.Date, amount: occ.Amount, projected: true, occ: occ})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].date.Equal(out[j].date) {
			return out[i].date.Before(out[j].date)
		}
		return out[i].entry.Description < out[j].entry.Description
	})
	return out
}

func (l *ledger) expense(r resolved) core.Expense {
	if r.projected {
		return r.entry.ProjectedExpense(l.snapshot.UserID, r.occ)
	}
	return *r.entry.Expense
}

func (l *ledger) income(r resolved) core.Income {
	if r.projected {
		return r.entry.ProjectedIncome(l.snapshot.UserID, r.occ)
	}
	return *r.entry.Income
}

func isInflow(e core.Entry) bool { return e.Flow == core.Inflow }

func isCashOutflow(e core.Entry) bool { return e.Flow == core.Outflow && e.CreditCardID == "" }

func isOutflow(e core.Entry) bool { return e.Flow == core.Outflow }

func cardOutflow(cardID string) func(core.Entry) bool {
	return func(e core.Entry) bool { return e.Flow == core.Outflow && e.CreditCardID == cardID }
}

// bill derives the bill of card for cycle from the ledger.
func (l *ledger) bill(card core.CreditCard, cycle BillingCycle) core.CreditCardBill {
	b, ok := l.bills[materializationKey{card.ID, cycle.Year, cycle.Month}]
	if !ok {
		b = core.CreditCardBill{
			Meta:         core.Meta{UserID: l.snapshot.UserID},
			CreditCardID: card.ID,
			Year:         cycle.Year,
			Month:        cycle.Month,
		}
	}
	b.DueDate = cycle.DueDate
	b.TotalAmount = core.Money{}
	b.Expenses = nil
	for _, r := range l.resolve(cycle.FirstDay(), cycle.End, cardOutflow(card.ID)) {
		b.TotalAmount = b.TotalAmount.Add(r.amount)
		b.Expenses = append(b.Expenses, l.expense(r))
	}
	return b
}

// DeriveBill computes the bill of card that closes in (year, month).
func DeriveBill(s *core.Snapshot, card core.CreditCard, year, month int) core.CreditCardBill {
	return newLedger(s).bill(card, CycleFor(card, year, month))
}

// AggregateMonth computes the monthly dashboard of (year, month) from s.
func AggregateMonth(s *core.Snapshot, year, month int) (core.DashboardMonthly, error) {
	if err := core.ValidateMonth(year, month); err != nil {
		return core.DashboardMonthly{}, err
	}
	return newLedger(s).month(year, month), nil
}

func (l *ledger) month(year, month int) core.DashboardMonthly {
	from, to := core.MonthStart(year, month), core.MonthEnd(year, month)
	out := core.DashboardMonthly{
		Period: core.NewPeriod(year, month),
		Details: core.MonthlyDetails{
			Incomes:         []core.Income{},
			Expenses:        []core.Expense{},
			CreditCardBills: []core.CreditCardBill{},
			Investments:     []core.Investment{},
		},
	}
	sum := &out.Summary

	for _, r := range l.resolve(from, to, isInflow) {
		sum.TotalIncome = sum.TotalIncome.Add(r.amount)
		out.Details.Incomes = append(out.Details.Incomes, l.income(r))
	}
	for _, r := range l.resolve(from, to, isCashOutflow) {
		sum.TotalExpenses = sum.TotalExpenses.Add(r.amount)
		out.Details.Expenses = append(out.Details.Expenses, l.expense(r))
	}
	for _, card := range l.snapshot.CreditCards {
		b := l.bill(card, CycleDueIn(card, year, month))
		if b.ID == "" && b.TotalAmount.IsZero() {
			continue
		}
		sum.TotalCreditCardBills = sum.TotalCreditCardBills.Add(b.TotalAmount)
		out.Details.CreditCardBills = append(out.Details.CreditCardBills, b)
	}
	for _, inv := range l.snapshot.Investments {
		if !inv.InvestmentDate.InMonth(year, month) {
			continue
		}
		sum.TotalInvestments = sum.TotalInvestments.Add(inv.InitialAmount)
		out.Details.Investments = append(out.Details.Investments, inv.WithReturn())
	}

	sum.TotalSpent = sum.TotalExpenses.Add(sum.TotalCreditCardBills)
	sum.TotalSaved = sum.TotalIncome.Sub(sum.TotalSpent)
	return out
}

// AggregateYear computes the twelve monthly dashboards of year concurrently
// and folds them into the yearly view. Averages divide by twelve.
func AggregateYear(ctx context.Context, s *core.Snapshot, year int) (core.DashboardYearly, error) {
	if err := core.ValidateMonth(year, 1); err != nil {
		return core.DashboardYearly{}, err
	}
	l := newLedger(s)
	var months [12]core.DashboardMonthly

	g, ctx := errgroup.WithContext(ctx)
	for i := range months {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			months[i] = l.month(year, i+1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.DashboardYearly{}, err
	}

	out := core.DashboardYearly{
		Period:      core.YearPeriod{Year: year},
		MonthlyData: make([]core.MonthTotals, 0, len(months)),
	}
	for _, m := range months {
		out.MonthlyData = append(out.MonthlyData, core.MonthTotals{
			Month:         m.Period.Month,
			MonthName:     m.Period.MonthName,
			TotalIncome:   m.Summary.TotalIncome,
			TotalExpenses: m.Summary.TotalSpent,
			TotalSaved:    m.Summary.TotalSaved,
		})
		out.Summary.TotalIncome = out.Summary.TotalIncome.Add(m.Summary.TotalIncome)
		out.Summary.TotalExpenses = out.Summary.TotalExpenses.Add(m.Summary.TotalSpent)
		out.Summary.TotalSaved = out.Summary.TotalSaved.Add(m.Summary.TotalSaved)
	}
	out.Summary.AverageMonthlyIncome = core.Cents(out.Summary.TotalIncome.Cents / int64(len(months)))
	out.Summary.AverageMonthlyExpenses = core.Cents(out.Summary.TotalExpenses.Cents / int64(len(months)))
	return out, nil
}

// AggregateCategories totals the month's expenses (card or not) and incomes
// per category, largest first.
func AggregateCategories(s *core.Snapshot, year, month int) (core.DashboardCategories, error) {
	if err := core.ValidateMonth(year, month); err != nil {
		return core.DashboardCategories{}, err
	}
	l := newLedger(s)
	from, to := core.MonthStart(year, month), core.MonthEnd(year, month)
	return core.DashboardCategories{
		Expenses: l.byCategory(l.resolve(from, to, isOutflow)),
		Incomes:  l.byCategory(l.resolve(from, to, isInflow)),
	}, nil
}

func (l *ledger) byCategory(rs []resolved) []core.CategoryTotal {
	totals := map[string]core.Money{}
	for _, r := range rs {
		totals[r.entry.CategoryID] = totals[r.entry.CategoryID].Add(r.amount)
	}
	out := make([]core.CategoryTotal, 0, len(totals))
	for id, total := range totals {
		name := "Uncategorized"
		if c, ok := l.categories[id]; ok {
			name = c.Name
		}
		out = append(out, core.CategoryTotal{CategoryID: id, CategoryName: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		if out[i].CategoryName != out[j].CategoryName {
			return out[i].CategoryName < out[j].CategoryName
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}
