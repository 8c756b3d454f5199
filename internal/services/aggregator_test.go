package services

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
)

func meta(id string) core.Meta { return core.Meta{ID: id, UserID: "u1"} }

func money(s string) core.Money {
	c, err := core.ParseDecimalToCents(s)
	if err != nil {
		panic(err)
	}
	return core.Cents(c)
}

func testSnapshot() *core.Snapshot {
	visa := core.CreditCard{Meta: meta("visa"), Name: "Visa", ClosingDay: 25, DueDay: 10}
	return &core.Snapshot{
		UserID: "u1",
		Categories: []core.Category{
			{Meta: meta("food"), Name: "Food", Color: "#f00", Kind: core.KindExpense},
			{Meta: meta("rent"), Name: "Rent", Color: "#0f0", Kind: core.KindExpense},
			{Meta: meta("subs"), Name: "Subscriptions", Color: "#00f", Kind: core.KindExpense},
			{Meta: meta("salary"), Name: "Salary", Color: "#ff0", Kind: core.KindIncome},
		},
		CreditCards: []core.CreditCard{visa},
		Bills: []core.CreditCardBill{
			{Meta: meta("bill-feb"), CreditCardID: "visa", Year: 2024, Month: 2, IsPaid: true},
		},
		FixedIncomes: []core.FixedIncome{
			{Meta: meta("fi-salary"), Name: "Salary", Amount: money("5000"), DayOfMonth: 5, CategoryID: "salary", IsActive: true, StartDate: core.MustDate("2024-01-01")},
		},
		FixedExpenses: []core.FixedExpense{
			{Meta: meta("fe-rent"), Name: "Rent", Amount: money("1500"), DueDay: 10, CategoryID: "rent", IsActive: true, StartDate: core.MustDate("2024-01-01")},
			{Meta: meta("fe-stream"), Name: "Streaming", Amount: money("50"), DueDay: 28, CategoryID: "subs", CreditCardID: "visa", IsActive: true, StartDate: core.MustDate("2024-01-01")},
		},
		Incomes: []core.Income{
			{Meta: meta("inc-salary-mar"), Description: "Salary", Amount: money("5000"), Date: core.MustDate("2024-03-05"), CategoryID: "salary", FixedIncomeID: "fi-salary"},
			{Meta: meta("inc-bonus"), Description: "Bonus", Amount: money("300"), Date: core.MustDate("2024-03-20"), CategoryID: "salary"},
		},
		Expenses: []core.Expense{
			{Meta: meta("groceries"), Description: "Groceries", Amount: money("200"), Date: core.MustDate("2024-03-03"), CategoryID: "food"},
			{Meta: meta("card-0220"), Description: "Dinner", Amount: money("40"), Date: core.MustDate("2024-02-20"), CategoryID: "food", CreditCardID: "visa"},
			{Meta: meta("card-0226"), Description: "Shoes", Amount: money("120"), Date: core.MustDate("2024-02-26"), CategoryID: "food", CreditCardID: "visa"},
			{Meta: meta("card-0325"), Description: "Market", Amount: money("80"), Date: core.MustDate("2024-03-25"), CategoryID: "food", CreditCardID: "visa"},
			{Meta: meta("card-0326"), Description: "Phone", Amount: money("999"), Date: core.MustDate("2024-03-26"), CategoryID: "food", CreditCardID: "visa"},
		},
		Investments: []core.Investment{
			{Meta: meta("cdb"), Name: "CDB", Type: core.CDB, InitialAmount: money("1000"), CurrentAmount: money("1150"), InvestmentDate: core.MustDate("2024-03-10")},
			{Meta: meta("old"), Name: "Old", Type: core.Poupanca, InitialAmount: money("70"), CurrentAmount: money("70"), InvestmentDate: core.MustDate("2023-03-10")},
		},
	}
}

func TestAggregateMonth(t *testing.T) {
	got, err := AggregateMonth(testSnapshot(), 2024, 3)
	if err != nil {
		t.Fatalf("AggregateMonth() error = %v", err)
	}

	if got.Period.Year != 2024 || got.Period.Month != 3 || got.Period.MonthName != "March" {
		t.Errorf("unexpected period %+v", got.Period)
	}

	want := core.MonthlySummary{
		TotalIncome:          money("5300"),
		TotalExpenses:        money("1700"),
		TotalCreditCardBills: money("90"),
		TotalInvestments:     money("1000"),
		TotalSpent:           money("1790"),
		TotalSaved:           money("3510"),
	}
	if got.Summary != want {
		t.Errorf("summary = %+v, want %+v", got.Summary, want)
	}

	if n := len(got.Details.Incomes); n != 2 {
		t.Errorf("expected 2 incomes (materialized salary not doubled), got %d", n)
	}
	if n := len(got.Details.Expenses); n != 2 {
		t.Fatalf("expected groceries and projected rent, got %d", n)
	}
	rent := got.Details.Expenses[1]
	if rent.ID != "" || rent.FixedExpenseID != "fe-rent" || rent.Date.String() != "2024-03-10" {
		t.Errorf("unexpected projected rent %+v", rent)
	}

	if len(got.Details.CreditCardBills) != 1 {
		t.Fatalf("expected one bill per card, got %d", len(got.Details.CreditCardBills))
	}
	bill := got.Details.CreditCardBills[0]
	if bill.ID != "bill-feb" || !bill.IsPaid || bill.Month != 2 || bill.DueDate.String() != "2024-03-10" {
		t.Errorf("unexpected bill %+v", bill)
	}
	var sum core.Money
	for _, e := range bill.Expenses {
		sum = sum.Add(e.Amount)
	}
	if sum != bill.TotalAmount {
		t.Errorf("bill total %s differs from its expenses %s", bill.TotalAmount, sum)
	}

	if len(got.Details.Investments) != 1 || got.Details.Investments[0].Return.Value != money("150") {
		t.Errorf("unexpected investments %+v", got.Details.Investments)
	}
}

func TestAggregateMonth_MaterializedCardOccurrence(t *testing.T) {
	s := testSnapshot()
	s.Expenses = append(s.Expenses, core.Expense{
		Meta: meta("stream-jan"), Description: "Streaming", Amount: money("50"),
		Date: core.MustDate("2024-01-28"), CategoryID: "subs", CreditCardID: "visa", FixedExpenseID: "fe-stream",
	})
	got, err := AggregateMonth(s, 2024, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary.TotalCreditCardBills != money("90") {
		t.Errorf("materialized occurrence counted twice: bills = %s", got.Summary.TotalCreditCardBills)
	}
}

func TestAggregateMonth_Empty(t *testing.T) {
	got, err := AggregateMonth(&core.Snapshot{UserID: "u1"}, 2024, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary != (core.MonthlySummary{}) {
		t.Errorf("expected zero summary, got %+v", got.Summary)
	}
	if got.Details.Incomes == nil || got.Details.CreditCardBills == nil {
		t.Error("detail lists should be empty, not nil")
	}
}

func TestAggregateMonth_InvalidMonth(t *testing.T) {
	if _, err := AggregateMonth(testSnapshot(), 2024, 13); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeriveBill(t *testing.T) {
	s := testSnapshot()
	b := DeriveBill(s, s.CreditCards[0], 2024, 3)
	// (Feb 25, Mar 25]: 120 + 80 on the ledger plus the Feb 28 streaming occurrence.
	if b.TotalAmount != money("250") {
		t.Errorf("TotalAmount = %s, want 250.00", b.TotalAmount)
	}
	if b.DueDate.String() != "2024-04-10" || b.ID != "" || b.IsPaid {
		t.Errorf("unexpected bill %+v", b)
	}
}

func TestAggregateYear(t *testing.T) {
	s := &core.Snapshot{
		UserID: "u1",
		FixedIncomes: []core.FixedIncome{
			{Meta: meta("fi"), Name: "Salary", Amount: money("100"), DayOfMonth: 1, CategoryID: "salary", IsActive: true, StartDate: core.MustDate("2024-01-01")},
		},
		FixedExpenses: []core.FixedExpense{
			{Meta: meta("fe"), Name: "Gym", Amount: money("30"), DueDay: 15, CategoryID: "health", IsActive: true, StartDate: core.MustDate("2024-07-01")},
		},
	}
	got, err := AggregateYear(context.Background(), s, 2024)
	if err != nil {
		t.Fatalf("AggregateYear() error = %v", err)
	}
	if len(got.MonthlyData) != 12 {
		t.Fatalf("expected 12 months, got %d", len(got.MonthlyData))
	}
	for i, m := range got.MonthlyData {
		if m.Month != i+1 {
			t.Errorf("month %d out of order", m.Month)
		}
	}
	if got.MonthlyData[5].TotalExpenses.Cents != 0 || got.MonthlyData[6].TotalExpenses != money("30") {
		t.Errorf("gym should start in July: %+v", got.MonthlyData[5:7])
	}
	want := core.YearlySummary{
		TotalIncome:            money("1200"),
		TotalExpenses:          money("180"),
		TotalSaved:             money("1020"),
		AverageMonthlyIncome:   money("100"),
		AverageMonthlyExpenses: money("15"),
	}
	if got.Summary != want {
		t.Errorf("summary = %+v, want %+v", got.Summary, want)
	}
}

func TestAggregateYear_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := AggregateYear(ctx, testSnapshot(), 2024); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAggregateCategories(t *testing.T) {
	got, err := AggregateCategories(testSnapshot(), 2024, 3)
	if err != nil {
		t.Fatal(err)
	}
	wantExpenses := []core.CategoryTotal{
		{CategoryID: "rent", CategoryName: "Rent", Total: money("1500")},
		{CategoryID: "food", CategoryName: "Food", Total: money("1279")},
		{CategoryID: "subs", CategoryName: "Subscriptions", Total: money("50")},
	}
	if len(got.Expenses) != len(wantExpenses) {
		t.Fatalf("expenses = %+v", got.Expenses)
	}
	for i := range wantExpenses {
		if got.Expenses[i] != wantExpenses[i] {
			t.Errorf("expenses[%d] = %+v, want %+v", i, got.Expenses[i], wantExpenses[i])
		}
	}
	if len(got.Incomes) != 1 || got.Incomes[0].Total != money("5300") {
		t.Errorf("incomes = %+v", got.Incomes)
	}
}
