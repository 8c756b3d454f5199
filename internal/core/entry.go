package core

// Rule is a monthly recurrence definition shared by fixed expenses and incomes.
type Rule struct {
	ID         string
	Amount     Money
	DayOfMonth int
	StartDate  Date
	EndDate    Date // zero means open-ended
	IsActive   bool
}

// Occurrence is one concrete application of a Rule.
type Occurrence struct {
	RuleID string
	Date   Date
	Amount Money
}

type (
	EntryKind int
	Flow      int
)

const (
	OneOff EntryKind = iota + 1
	Recurring
)

const (
	Outflow Flow = iota + 1
	Inflow
)

func (k EntryKind) String() string {
	switch k {
	case OneOff:
		return "one-off"
	case Recurring:
		return "recurring"
	default:
		return "unknown"
	}
}

// Entry is either a ledger entry (OneOff, Date set) or a recurrence rule
// (Recurring, Rule set) that still has to be expanded for a month.
type Entry struct {
	Kind         EntryKind
	Flow         Flow
	Description  string
	CategoryID   string
	CreditCardID string

	// OneOff
	Expense *Expense
	Income  *Income
	Date    Date
	Amount  Money
	// SourceRuleID is the rule a ledger entry was materialized from and
	// SourceYear/SourceMonth the occurrence it stands for.
	SourceRuleID string
	SourceYear   int
	SourceMonth  int

	// Recurring
	Rule Rule
}

// ExpenseEntry wraps a ledger expense.
func ExpenseEntry(e *Expense) Entry {
	return Entry{
		Kind:         OneOff,
		Flow:         Outflow,
		Description:  e.Description,
		CategoryID:   e.CategoryID,
		CreditCardID: e.CreditCardID,
		Expense:      e,
		Date:         e.Date,
		Amount:       e.Amount,
		SourceRuleID: e.FixedExpenseID,
		SourceYear:   sourceYear(e.OccurrenceYear, e.Date),
		SourceMonth:  sourceMonth(e.OccurrenceMonth, e.Date),
	}
}

// IncomeEntry wraps a ledger income.
func IncomeEntry(i *Income) Entry {
	return Entry{
		Kind:         OneOff,
		Flow:         Inflow,
		Description:  i.Description,
		CategoryID:   i.CategoryID,
		Income:       i,
		Date:         i.Date,
		Amount:       i.Amount,
		SourceRuleID: i.FixedIncomeID,
		SourceYear:   sourceYear(i.OccurrenceYear, i.Date),
		SourceMonth:  sourceMonth(i.OccurrenceMonth, i.Date),
	}
}

// Entries linked to a rule without a recorded occurrence count for the month
// of their date.
func sourceYear(year int, d Date) int {
	if year != 0 {
		return year
	}
	return d.Year()
}

func sourceMonth(month int, d Date) int {
	if month != 0 {
		return month
	}
	return d.Month()
}

// FixedExpenseEntry wraps an expense recurrence rule.
func FixedExpenseEntry(f FixedExpense) Entry {
	return Entry{
		Kind:         Recurring,
		Flow:         Outflow,
		Description:  f.Name,
		CategoryID:   f.CategoryID,
		CreditCardID: f.CreditCardID,
		Rule:         f.Rule(),
	}
}

// FixedIncomeEntry wraps an income recurrence rule.
func FixedIncomeEntry(f FixedIncome) Entry {
	return Entry{
		Kind:        Recurring,
		Flow:        Inflow,
		Description: f.Name,
		CategoryID:  f.CategoryID,
		Rule:        f.Rule(),
	}
}

// ProjectedExpense renders an unmaterialized occurrence as a ledger-shaped
// expense with an empty id.
func (e Entry) ProjectedExpense(userID string, occ Occurrence) Expense {
	return Expense{
		Meta:            Meta{UserID: userID},
		Description:     e.Description,
		Amount:          occ.Amount,
		Date:            occ.Date,
		CategoryID:      e.CategoryID,
		CreditCardID:    e.CreditCardID,
		FixedExpenseID:  occ.RuleID,
		OccurrenceYear:  occ.Date.Year(),
		OccurrenceMonth: occ.Date.Month(),
	}
}

// ProjectedIncome renders an unmaterialized occurrence as a ledger-shaped
// income with an empty id.
func (e Entry) ProjectedIncome(userID string, occ Occurrence) Income {
	return Income{
		Meta:            Meta{UserID: userID},
		Description:     e.Description,
		Amount:          occ.Amount,
		Date:            occ.Date,
		CategoryID:      e.CategoryID,
		FixedIncomeID:   occ.RuleID,
		OccurrenceYear:  occ.Date.Year(),
		OccurrenceMonth: occ.Date.Month(),
	}
}
