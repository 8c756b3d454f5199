package services

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Fixed expenses and incomes are recurrence rules. Changing one only alters
// projections; occurrences already materialized stay in the ledger.

func (s *FinanceService) ListFixedExpenses(ctx context.Context, userID string) ([]core.FixedExpense, error) {
	return s.repo.ListFixedExpenses(ctx, userID)
}

func (s *FinanceService) GetFixedExpense(ctx context.Context, userID, id string) (core.FixedExpense, error) {
	return s.repo.GetFixedExpense(ctx, userID, id)
}

func (s *FinanceService) CreateFixedExpense(ctx context.Context, userID string, f core.FixedExpense) (core.FixedExpense, error) {
	f.UserID = userID
	if err := f.Validate(); err != nil {
		return core.FixedExpense{}, err
	}
	var created core.FixedExpense
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		if err := checkFixedExpenseRefs(ctx, q, f); err != nil {
			return err
		}
		var err error
		created, err = q.CreateFixedExpense(ctx, f)
		return err
	})
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("create fixed expense: %w", err)
	}
	s.changed(ctx, userID, amqp.ReasonRecurring)
	return created, nil
}

func (s *FinanceService) UpdateFixedExpense(ctx context.Context, userID string, f core.FixedExpense) (core.FixedExpense, error) {
	f.UserID = userID
	if err := f.Validate(); err != nil {
		return core.FixedExpense{}, err
	}
	var updated core.FixedExpense
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		if err := checkFixedExpenseRefs(ctx, q, f); err != nil {
			return err
		}
		var err error
		updated, err = q.UpdateFixedExpense(ctx, f)
		return err
	})
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("update fixed expense: %w", err)
	}
	s.changed(ctx, userID, amqp.ReasonRecurring)
	return updated, nil
}

func (s *FinanceService) DeleteFixedExpense(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteFixedExpense(ctx, userID, id); err != nil {
		return fmt.Errorf("delete fixed expense: %w", err)
	}
	s.changed(ctx, userID, amqp.ReasonRecurring)
	return nil
}

func checkFixedExpenseRefs(ctx context.Context, q *storage.Queries, f core.FixedExpense) error {
	if err := requireCategory(ctx, q, f.UserID, f.CategoryID, core.KindExpense); err != nil {
		return err
	}
	if f.CreditCardID != "" {
		if _, err := requireCard(ctx, q, f.UserID, f.CreditCardID); err != nil {
			return err
		}
	}
	return nil
}

func (s *FinanceService) ListFixedIncomes(ctx context.Context, userID string) ([]core.FixedIncome, error) {
	return s.repo.ListFixedIncomes(ctx, userID)
}

func (s *FinanceService) GetFixedIncome(ctx context.Context, userID, id string) (core.FixedIncome, error) {
	return s.repo.GetFixedIncome(ctx, userID, id)
}

func (s *FinanceService) CreateFixedIncome(ctx context.Context, userID string, f core.FixedIncome) (core.FixedIncome, error) {
	f.UserID = userID
	if err := f.Validate(); err != nil {
		return core.FixedIncome{}, err
	}
	var created core.FixedIncome
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		if err := requireCategory(ctx, q, userID, f.CategoryID, core.KindIncome); err != nil {
			return err
		}
		var err error
		created, err = q.CreateFixedIncome(ctx, f)
		return err
	})
	if err != nil {
		return core.FixedIncome{}, fmt.Errorf("create fixed income: %w", err)
	}
	s.changed(ctx, userID, amqp.ReasonRecurring)
	return created, nil
}

func (s *FinanceService) UpdateFixedIncome(ctx context.Context, userID string, f core.FixedIncome) (core.FixedIncome, error) {
	f.UserID = userID
	if err := f.Validate(); err != nil {
		return core.FixedIncome{}, err
	}
	var updated core.FixedIncome
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		if err := requireCategory(ctx, q, userID, f.CategoryID, core.KindIncome); err != nil {
			return err
		}
		var err error
		updated, err = q.UpdateFixedIncome(ctx, f)
		return err
	})
	if err != nil {
		return core.FixedIncome{}, fmt.Errorf("update fixed income: %w", err)
	}
	s.changed(ctx, userID, amqp.ReasonRecurring)
	return updated, nil
}

func (s *FinanceService) DeleteFixedIncome(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteFixedIncome(ctx, userID, id); err != nil {
		return fmt.Errorf("delete fixed income: %w", err)
	}
	s.changed(ctx, userID, amqp.ReasonRecurring)
	return nil
}
