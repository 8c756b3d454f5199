package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Publisher announces ledger changes. *amqp.Client satisfies it.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// Invalidator drops cached read models of a user.
type Invalidator interface {
	Invalidate(userID string)
}

// FinanceService owns every mutation of a user's finances. Each mutation is
// validated before any write, runs in a single transaction and, once
// committed, invalidates the user's dashboards and publishes a LedgerChanged
// event for every month it touched.
type FinanceService struct {
	repo       *storage.SQLiteRepository
	publisher  Publisher
	dashboards Invalidator
	now        func() time.Time
}

// NewFinanceService wires the service. publisher and dashboards may be nil.
func NewFinanceService(repo *storage.SQLiteRepository, publisher Publisher, dashboards Invalidator) *FinanceService {
	return &FinanceService{
		repo:       repo,
		publisher:  publisher,
		dashboards: dashboards,
		now:        time.Now,
	}
}

// changed runs the post-commit side effects. Failures are logged, never
// returned: the write already happened.
func (s *FinanceService) changed(ctx context.Context, userID, reason string, dates ...core.Date) {
	if s.dashboards != nil {
		s.dashboards.Invalidate(userID)
	}
	if s.publisher == nil {
		return
	}

	type month struct{ year, month int }
	seen := map[month]bool{}
	if len(dates) == 0 {
		dates = []core.Date{core.DateOf(s.now())}
	}
	for _, d := range dates {
		if d.IsEmpty() {
			continue
		}
		key := month{d.Year(), d.Month()}
		if seen[key] {
			continue
		}
		seen[key] = true

		msg := amqp.NewLedgerChangedMessage(userID, key.year, key.month, reason)
		if err := s.publisher.PublishLedgerChanged(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish ledger changed message",
				"user_id", userID,
				"year", key.year,
				"month", key.month,
				"reason", reason,
				"error", err)
		}
	}
}

func requireCategory(ctx context.Context, q *storage.Queries, userID, id string, kind core.CategoryKind) error {
	c, err := q.GetCategory(ctx, userID, id)
	if errors.Is(err, core.ErrNotFound) || (err == nil && c.Kind != kind) {
		return core.Invalid("categoryId", core.ErrUnknownCategory)
	}
	return err
}

func requireCard(ctx context.Context, q *storage.Queries, userID, id string) (core.CreditCard, error) {
	card, err := q.GetCreditCard(ctx, userID, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.CreditCard{}, core.Invalid("creditCardId", core.ErrUnknownCard)
	}
	return card, err
}

// attribute points a card expense at the bill of the cycle containing its
// date, creating the bill row on first use.
func attribute(ctx context.Context, q *storage.Queries, e *core.Expense) error {
	if e.CreditCardID == "" {
		e.CreditCardBillID = ""
		return nil
	}
	card, err := requireCard(ctx, q, e.UserID, e.CreditCardID)
	if err != nil {
		return err
	}
	cycle := CycleContaining(card, e.Date)
	billID, err := q.EnsureBill(ctx, e.UserID, card.ID, cycle.Year, cycle.Month)
	if err != nil {
		return fmt.Errorf("ensure bill: %w", err)
	}
	e.CreditCardBillID = billID
	return nil
}

// withDueDates fills the derived due date of bills belonging to card.
func withDueDates(card core.CreditCard, bills []core.CreditCardBill) []core.CreditCardBill {
	for i := range bills {
		bills[i].DueDate = CycleFor(card, bills[i].Year, bills[i].Month).DueDate
	}
	return bills
}

// Expenses

func (s *FinanceService) ListExpenses(ctx context.Context, userID string, f storage.MonthFilter) ([]core.Expense, error) {
	return s.repo.ListExpenses(ctx, userID, f)
}

func (s *FinanceService) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	return s.repo.GetExpense(ctx, userID, id)
}

func (s *FinanceService) CreateExpense(ctx context.Context, userID string, e core.Expense) (core.Expense, error) {
	e.UserID = userID
	e.FixedExpenseID, e.PurchaseID, e.InstallmentNumber = "", "", 0
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	var created core.Expense
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		if err := requireCategory(ctx, q, userID, e.CategoryID, core.KindExpense); err != nil {
			return err
		}
		if err := attribute(ctx, q, &e); err != nil {
			return err
		}
		var err error
		created, err = q.CreateExpense(ctx, e)
		return err
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.changed(ctx, userID, amqp.ReasonExpense, created.Date)
	return created, nil
}

// UpdateExpense replaces the editable fields of an expense and re-attributes
// it to the right bill.
func (s *FinanceService) UpdateExpense(ctx context.Context, userID string, e core.Expense) (core.Expense, error) {
	e.UserID = userID
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	var old, updated core.Expense
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if old, err = q.GetExpense(ctx, userID, e.ID); err != nil {
			return err
		}
		if err := requireCategory(ctx, q, userID, e.CategoryID, core.KindExpense); err != nil {
			return err
		}
		if err := attribute(ctx, q, &e); err != nil {
			return err
		}
		if updated, err = q.UpdateExpense(ctx, e); err != nil {
			return err
		}
		if old.CreditCardID != "" {
			return q.DeleteEmptyBills(ctx, old.CreditCardID)
		}
		return nil
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.changed(ctx, userID, amqp.ReasonExpense, old.Date, updated.Date)
	return updated, nil
}

func (s *FinanceService) DeleteExpense(ctx context.Context, userID, id string) error {
	var old core.Expense
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if old, err = q.GetExpense(ctx, userID, id); err != nil {
			return err
		}
		if err := q.DeleteExpense(ctx, userID, id); err != nil {
			return err
		}
		if old.CreditCardID != "" {
			return q.DeleteEmptyBills(ctx, old.CreditCardID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.changed(ctx, userID, amqp.ReasonExpense, old.Date)
	return nil
}

// Incomes

func (s *FinanceService) ListIncomes(ctx context.Context, userID string, f storage.MonthFilter) ([]core.Income, error) {
	return s.repo.ListIncomes(ctx, userID, f)
}

func (s *FinanceService) GetIncome(ctx context.Context, userID, id string) (core.Income, error) {
	return s.repo.GetIncome(ctx, userID, id)
}

func (s *FinanceService) CreateIncome(ctx context.Context, userID string, i core.Income) (core.Income, error) {
	i.UserID = userID
	i.FixedIncomeID = ""
	if err := i.Validate(); err != nil {
		return core.Income{}, err
	}

	var created core.Income
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		if err := requireCategory(ctx, q, userID, i.CategoryID, core.KindIncome); err != nil {
			return err
		}
		var err error
		created, err = q.CreateIncome(ctx, i)
		return err
	})
	if err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", err)
	}

	s.changed(ctx, userID, amqp.ReasonIncome, created.Date)
	return created, nil
}

func (s *FinanceService) UpdateIncome(ctx context.Context, userID string, i core.Income) (core.Income, error) {
	i.UserID = userID
	if err := i.Validate(); err != nil {
		return core.Income{}, err
	}

	var old, updated core.Income
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if old, err = q.GetIncome(ctx, userID, i.ID); err != nil {
			return err
		}
		if err := requireCategory(ctx, q, userID, i.CategoryID, core.KindIncome); err != nil {
			return err
		}
		updated, err = q.UpdateIncome(ctx, i)
		return err
	})
	if err != nil {
		return core.Income{}, fmt.Errorf("update income: %w", err)
	}

	s.changed(ctx, userID, amqp.ReasonIncome, old.Date, updated.Date)
	return updated, nil
}

func (s *FinanceService) DeleteIncome(ctx context.Context, userID, id string) error {
	var old core.Income
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if old, err = q.GetIncome(ctx, userID, id); err != nil {
			return err
		}
		return q.DeleteIncome(ctx, userID, id)
	})
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}

	s.changed(ctx, userID, amqp.ReasonIncome, old.Date)
	return nil
}

// Categories

func (s *FinanceService) ListCategories(ctx context.Context, userID string, kind core.CategoryKind) ([]core.Category, error) {
	if err := kind.Validate(); err != nil {
		return nil, core.Invalid("kind", err)
	}
	return s.repo.ListCategories(ctx, userID, kind)
}

// GetCategory reports a category of another kind as not found.
func (s *FinanceService) GetCategory(ctx context.Context, userID string, kind core.CategoryKind, id string) (core.Category, error) {
	c, err := s.repo.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	if c.Kind != kind {
		return core.Category{}, fmt.Errorf("category: %w", core.ErrNotFound)
	}
	return c, nil
}

func (s *FinanceService) CreateCategory(ctx context.Context, userID string, c core.Category) (core.Category, error) {
	c.UserID = userID
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	created, err := s.repo.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.changed(ctx, userID, amqp.ReasonCategory)
	return created, nil
}

func (s *FinanceService) UpdateCategory(ctx context.Context, userID string, c core.Category) (core.Category, error) {
	c.UserID = userID
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	updated, err := s.repo.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	s.changed(ctx, userID, amqp.ReasonCategory)
	return updated, nil
}

// DeleteCategory refuses to delete a category that is still referenced.
func (s *FinanceService) DeleteCategory(ctx context.Context, userID string, kind core.CategoryKind, id string) error {
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		c, err := q.GetCategory(ctx, userID, id)
		if err != nil {
			return err
		}
		if c.Kind != kind {
			return fmt.Errorf("category: %w", core.ErrNotFound)
		}
		used, err := q.CategoryInUse(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("category %q is still referenced: %w", c.Name, core.ErrConflict)
		}
		return q.DeleteCategory(ctx, userID, id, kind)
	})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.changed(ctx, userID, amqp.ReasonCategory)
	return nil
}

// Investments

func (s *FinanceService) ListInvestments(ctx context.Context, userID string) ([]core.Investment, error) {
	items, err := s.repo.ListInvestments(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i] = items[i].WithReturn()
	}
	return items, nil
}

// Portfolio sums every position of the user.
func (s *FinanceService) Portfolio(ctx context.Context, userID string) (core.Portfolio, error) {
	items, err := s.repo.ListInvestments(ctx, userID)
	if err != nil {
		return core.Portfolio{}, err
	}
	return core.NewPortfolio(items), nil
}

func (s *FinanceService) GetInvestment(ctx context.Context, userID, id string) (core.Investment, error) {
	inv, err := s.repo.GetInvestment(ctx, userID, id)
	if err != nil {
		return core.Investment{}, err
	}
	return inv.WithReturn(), nil
}

func (s *FinanceService) CreateInvestment(ctx context.Context, userID string, inv core.Investment) (core.Investment, error) {
	inv.UserID = userID
	if err := inv.Validate(); err != nil {
		return core.Investment{}, err
	}
	created, err := s.repo.CreateInvestment(ctx, inv)
	if err != nil {
		return core.Investment{}, fmt.Errorf("create investment: %w", err)
	}
	s.changed(ctx, userID, amqp.ReasonInvestment, created.InvestmentDate)
	return created.WithReturn(), nil
}

func (s *FinanceService) UpdateInvestment(ctx context.Context, userID string, inv core.Investment) (core.Investment, error) {
	inv.UserID = userID
	if err := inv.Validate(); err != nil {
		return core.Investment{}, err
	}

	var old, updated core.Investment
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if old, err = q.GetInvestment(ctx, userID, inv.ID); err != nil {
			return err
		}
		updated, err = q.UpdateInvestment(ctx, inv)
		return err
	})
	if err != nil {
		return core.Investment{}, fmt.Errorf("update investment: %w", err)
	}
	s.changed(ctx, userID, amqp.ReasonInvestment, old.InvestmentDate, updated.InvestmentDate)
	return updated.WithReturn(), nil
}

func (s *FinanceService) DeleteInvestment(ctx context.Context, userID, id string) error {
	var old core.Investment
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if old, err = q.GetInvestment(ctx, userID, id); err != nil {
			return err
		}
		return q.DeleteInvestment(ctx, userID, id)
	})
	if err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	s.changed(ctx, userID, amqp.ReasonInvestment, old.InvestmentDate)
	return nil
}
