package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

type fixture struct {
	user   core.User
	food   core.Category
	salary core.Category
	card   core.CreditCard
	repo   *SQLiteRepository
	ctx    context.Context
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := newTestRepo(t)
	ctx := context.Background()
	u, err := repo.CreateUser(ctx, "Ana", "Ana@Example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	food, err := repo.CreateCategory(ctx, core.Category{Meta: core.Meta{UserID: u.ID}, Name: "Food", Color: "#f00", Kind: core.KindExpense})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	salary, err := repo.CreateCategory(ctx, core.Category{Meta: core.Meta{UserID: u.ID}, Name: "Salary", Color: "#0f0", Kind: core.KindIncome})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	card, err := repo.CreateCreditCard(ctx, core.CreditCard{Meta: core.Meta{UserID: u.ID}, Name: "Visa", ClosingDay: 25, DueDay: 10, Limit: core.Cents(500000)})
	if err != nil {
		t.Fatalf("CreateCreditCard() error = %v", err)
	}
	return fixture{user: u, food: food, salary: salary, card: card, repo: repo, ctx: ctx}
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	for run := 1; run <= 2; run++ {
		version, err := RunMigrations(path)
		if err != nil {
			t.Fatalf("run %d: RunMigrations() error = %v", run, err)
		}
		if version != 1 {
			t.Errorf("run %d: version = %d, want 1", run, version)
		}
	}

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository() on a migrated file error = %v", err)
	}
	repo.Close()
}

func TestUsersAndSessions(t *testing.T) {
	f := newFixture(t)

	got, err := f.repo.GetUserByEmail(f.ctx, "ana@example.com")
	if err != nil || got.ID != f.user.ID {
		t.Fatalf("GetUserByEmail() = %+v, %v", got, err)
	}
	if _, err := f.repo.CreateUser(f.ctx, "Other", "ANA@example.com", "x"); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate email should conflict, got %v", err)
	}
	if _, err := f.repo.GetUser(f.ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	now := time.Now().UTC()
	if err := f.repo.CreateSession(f.ctx, core.Session{Token: "live", UserID: f.user.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := f.repo.CreateSession(f.ctx, core.Session{Token: "stale", UserID: f.user.ID, ExpiresAt: now.Add(-time.Hour), CreatedAt: now}); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	s, err := f.repo.GetSession(f.ctx, "live")
	if err != nil || s.UserID != f.user.ID || !s.ExpiresAt.After(now) {
		t.Fatalf("GetSession() = %+v, %v", s, err)
	}
	n, err := f.repo.DeleteExpiredSessions(f.ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpiredSessions() = %d, %v", n, err)
	}
	if _, err := f.repo.GetSession(f.ctx, "stale"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("stale session should be gone, got %v", err)
	}
}

func TestCategories(t *testing.T) {
	f := newFixture(t)

	// Same name in the other namespace is fine, in the same one it conflicts.
	if _, err := f.repo.CreateCategory(f.ctx, core.Category{Meta: core.Meta{UserID: f.user.ID}, Name: "Food", Color: "#fff", Kind: core.KindIncome}); err != nil {
		t.Fatalf("expected separate namespaces, got %v", err)
	}
	if _, err := f.repo.CreateCategory(f.ctx, core.Category{Meta: core.Meta{UserID: f.user.ID}, Name: "Food", Color: "#fff", Kind: core.KindExpense}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	expenses, err := f.repo.ListCategories(f.ctx, f.user.ID, core.KindExpense)
	if err != nil || len(expenses) != 1 {
		t.Fatalf("ListCategories(expense) = %v, %v", expenses, err)
	}
	all, err := f.repo.ListCategories(f.ctx, f.user.ID, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("ListCategories(all) = %v, %v", all, err)
	}

	if _, err := f.repo.CreateExpense(f.ctx, core.Expense{Meta: core.Meta{UserID: f.user.ID}, Description: "Lunch", Amount: core.Cents(1000), Date: core.MustDate("2024-03-01"), CategoryID: f.food.ID}); err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	used, err := f.repo.CategoryInUse(f.ctx, f.food.ID)
	if err != nil || !used {
		t.Fatalf("CategoryInUse() = %v, %v", used, err)
	}
	used, err = f.repo.CategoryInUse(f.ctx, f.salary.ID)
	if err != nil || used {
		t.Fatalf("CategoryInUse(salary) = %v, %v", used, err)
	}
	if err := f.repo.DeleteCategory(f.ctx, f.user.ID, f.salary.ID, core.KindExpense); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("kind mismatch should not delete, got %v", err)
	}
	if err := f.repo.DeleteCategory(f.ctx, f.user.ID, f.salary.ID, core.KindIncome); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
}

func TestBillsDeriveTotals(t *testing.T) {
	f := newFixture(t)

	billID, err := f.repo.EnsureBill(f.ctx, f.user.ID, f.card.ID, 2024, 3)
	if err != nil {
		t.Fatalf("EnsureBill() error = %v", err)
	}
	again, err := f.repo.EnsureBill(f.ctx, f.user.ID, f.card.ID, 2024, 3)
	if err != nil || again != billID {
		t.Fatalf("EnsureBill() should be idempotent: %s vs %s (%v)", billID, again, err)
	}

	for _, cents := range []int64{1000, 2550} {
		_, err := f.repo.CreateExpense(f.ctx, core.Expense{
			Meta: core.Meta{UserID: f.user.ID}, Description: "Card", Amount: core.Cents(cents),
			Date: core.MustDate("2024-03-10"), CategoryID: f.food.ID,
			CreditCardID: f.card.ID, CreditCardBillID: billID,
		})
		if err != nil {
			t.Fatalf("CreateExpense() error = %v", err)
		}
	}

	bill, err := f.repo.GetBill(f.ctx, f.user.ID, billID)
	if err != nil {
		t.Fatalf("GetBill() error = %v", err)
	}
	if bill.TotalAmount.Cents != 3550 || bill.IsPaid {
		t.Fatalf("unexpected bill %+v", bill)
	}

	if err := f.repo.SetBillPaid(f.ctx, f.user.ID, billID, true); err != nil {
		t.Fatalf("SetBillPaid() error = %v", err)
	}
	bills, err := f.repo.ListBillsByCard(f.ctx, f.user.ID, f.card.ID)
	if err != nil || len(bills) != 1 || !bills[0].IsPaid {
		t.Fatalf("ListBillsByCard() = %+v, %v", bills, err)
	}

	if err := f.repo.DeleteCreditCard(f.ctx, f.user.ID, f.card.ID); err != nil {
		t.Fatalf("DeleteCreditCard() error = %v", err)
	}
	if _, err := f.repo.GetBill(f.ctx, f.user.ID, billID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("bills should cascade, got %v", err)
	}
	expenses, err := f.repo.ListExpenses(f.ctx, f.user.ID, MonthFilter{Year: 2024, Month: 3})
	if err != nil || len(expenses) != 2 {
		t.Fatalf("ListExpenses() = %v, %v", expenses, err)
	}
	for _, e := range expenses {
		if e.CreditCardID != "" || e.CreditCardBillID != "" {
			t.Fatalf("expense should lose its card, got %+v", e)
		}
	}
}

func TestInsertOccurrenceIsIdempotent(t *testing.T) {
	f := newFixture(t)

	rule, err := f.repo.CreateFixedIncome(f.ctx, core.FixedIncome{
		Meta: core.Meta{UserID: f.user.ID}, Name: "Salary", Amount: core.Cents(500000), DayOfMonth: 5,
		CategoryID: f.salary.ID, IsActive: true, StartDate: core.MustDate("2024-01-01"),
	})
	if err != nil {
		t.Fatalf("CreateFixedIncome() error = %v", err)
	}
	inc := core.Income{
		Meta: core.Meta{UserID: f.user.ID}, Description: rule.Name, Amount: rule.Amount,
		Date: core.MustDate("2024-03-05"), CategoryID: rule.CategoryID, FixedIncomeID: rule.ID,
	}
	for i, want := range []bool{true, false, false} {
		inserted, err := f.repo.InsertOccurrenceIncome(f.ctx, inc, 2024, 3)
		if err != nil {
			t.Fatalf("InsertOccurrenceIncome() error = %v", err)
		}
		if inserted != want {
			t.Fatalf("run %d: inserted = %v, want %v", i, inserted, want)
		}
	}
	inserted, err := f.repo.InsertOccurrenceIncome(f.ctx, inc, 2024, 4)
	if err != nil || !inserted {
		t.Fatalf("another month should insert: %v, %v", inserted, err)
	}
	incomes, err := f.repo.ListIncomes(f.ctx, f.user.ID, MonthFilter{})
	if err != nil || len(incomes) != 2 {
		t.Fatalf("ListIncomes() = %v, %v", incomes, err)
	}

	fe, err := f.repo.CreateFixedExpense(f.ctx, core.FixedExpense{
		Meta: core.Meta{UserID: f.user.ID}, Name: "Rent", Amount: core.Cents(90000), DueDay: 31,
		CategoryID: f.food.ID, IsActive: true, StartDate: core.MustDate("2024-01-01"),
	})
	if err != nil {
		t.Fatalf("CreateFixedExpense() error = %v", err)
	}
	exp := core.Expense{
		Meta: core.Meta{UserID: f.user.ID}, Description: fe.Name, Amount: fe.Amount,
		Date: core.MustDate("2024-02-29"), CategoryID: fe.CategoryID, FixedExpenseID: fe.ID,
	}
	first, err := f.repo.InsertOccurrenceExpense(f.ctx, exp, 2024, 2)
	if err != nil || !first {
		t.Fatalf("first InsertOccurrenceExpense() = %v, %v", first, err)
	}
	second, err := f.repo.InsertOccurrenceExpense(f.ctx, exp, 2024, 2)
	if err != nil || second {
		t.Fatalf("second InsertOccurrenceExpense() = %v, %v", second, err)
	}

	stored, err := f.repo.ListExpenses(f.ctx, f.user.ID, MonthFilter{Year: 2024, Month: 2})
	if err != nil || len(stored) != 1 {
		t.Fatalf("ListExpenses() = %v, %v", stored, err)
	}
	moved := stored[0]
	moved.Date = core.MustDate("2024-03-01")
	moved, err = f.repo.UpdateExpense(f.ctx, moved)
	if err != nil {
		t.Fatalf("UpdateExpense() error = %v", err)
	}
	if moved.OccurrenceYear != 2024 || moved.OccurrenceMonth != 2 {
		t.Errorf("occurrence after date edit = %d-%d, want 2024-2", moved.OccurrenceYear, moved.OccurrenceMonth)
	}
	if again, err := f.repo.InsertOccurrenceExpense(f.ctx, exp, 2024, 2); err != nil || again {
		t.Errorf("occurrence of a moved expense inserted again: %v, %v", again, err)
	}
}

func TestPurchaseCascade(t *testing.T) {
	f := newFixture(t)

	err := f.repo.InTx(f.ctx, func(q *Queries) error {
		p, err := q.CreatePurchase(f.ctx, core.Purchase{
			Meta: core.Meta{UserID: f.user.ID}, Description: "TV", TotalAmount: core.Cents(10000),
			Installments: 2, CategoryID: f.food.ID, PurchaseDate: core.MustDate("2024-01-15"),
		})
		if err != nil {
			return err
		}
		for n := 1; n <= 2; n++ {
			if _, err := q.CreateInstallment(f.ctx, core.Installment{
				Meta: core.Meta{UserID: f.user.ID}, PurchaseID: p.ID, InstallmentNumber: n,
				Amount: core.Cents(5000), DueDate: core.NewDate(2024, n, 15),
			}); err != nil {
				return err
			}
			if _, err := q.CreateExpense(f.ctx, core.Expense{
				Meta: core.Meta{UserID: f.user.ID}, Description: "TV", Amount: core.Cents(5000),
				Date: core.NewDate(2024, n, 15), CategoryID: f.food.ID, PurchaseID: p.ID, InstallmentNumber: n,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx() error = %v", err)
	}

	purchases, err := f.repo.ListPurchases(f.ctx, f.user.ID)
	if err != nil || len(purchases) != 1 {
		t.Fatalf("ListPurchases() = %v, %v", purchases, err)
	}
	exps, err := f.repo.ListExpensesByPurchase(f.ctx, purchases[0].ID)
	if err != nil || len(exps) != 2 || exps[1].InstallmentNumber != 2 {
		t.Fatalf("ListExpensesByPurchase() = %+v, %v", exps, err)
	}

	if err := f.repo.DeletePurchase(f.ctx, f.user.ID, purchases[0].ID); err != nil {
		t.Fatalf("DeletePurchase() error = %v", err)
	}
	insts, err := f.repo.ListInstallments(f.ctx, purchases[0].ID)
	if err != nil || len(insts) != 0 {
		t.Fatalf("installments should cascade: %v, %v", insts, err)
	}
	all, err := f.repo.ListExpenses(f.ctx, f.user.ID, MonthFilter{})
	if err != nil || len(all) != 0 {
		t.Fatalf("purchase expenses should cascade: %v, %v", all, err)
	}
}

func TestInTxRollsBack(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")

	err := f.repo.InTx(f.ctx, func(q *Queries) error {
		if _, err := q.CreateIncome(f.ctx, core.Income{
			Meta: core.Meta{UserID: f.user.ID}, Description: "Gift", Amount: core.Cents(100),
			Date: core.MustDate("2024-03-01"), CategoryID: f.salary.ID,
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	incomes, err := f.repo.ListIncomes(f.ctx, f.user.ID, MonthFilter{})
	if err != nil || len(incomes) != 0 {
		t.Fatalf("rollback should leave no income: %v, %v", incomes, err)
	}
}

func TestReadSnapshot(t *testing.T) {
	f := newFixture(t)
	if _, err := f.repo.CreateInvestment(f.ctx, core.Investment{
		Meta: core.Meta{UserID: f.user.ID}, Name: "CDB", Type: core.CDB,
		InitialAmount: core.Cents(100000), CurrentAmount: core.Cents(115000), InvestmentDate: core.MustDate("2024-01-02"),
	}); err != nil {
		t.Fatalf("CreateInvestment() error = %v", err)
	}
	other, err := f.repo.CreateUser(f.ctx, "Bob", "bob@example.com", "hash")
	if err != nil {
		t.Fatal(err)
	}

	s, err := f.repo.ReadSnapshot(f.ctx, f.user.ID)
	if err != nil {
		t.Fatalf("ReadSnapshot() error = %v", err)
	}
	if len(s.Categories) != 2 || len(s.CreditCards) != 1 || len(s.Investments) != 1 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if s.Investments[0].InvestmentDate.String() != "2024-01-02" || s.Investments[0].Type != core.CDB {
		t.Fatalf("unexpected investment %+v", s.Investments[0])
	}

	empty, err := f.repo.ReadSnapshot(f.ctx, other.ID)
	if err != nil || len(empty.Categories) != 0 || len(empty.CreditCards) != 0 {
		t.Fatalf("snapshots must be per user: %+v, %v", empty, err)
	}
}
