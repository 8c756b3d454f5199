package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

// ReadSnapshot loads every entity of userID inside one transaction so
// aggregations see a consistent state.
func (r *SQLiteRepository) ReadSnapshot(ctx context.Context, userID string) (*core.Snapshot, error) {
	s := &core.Snapshot{UserID: userID}
	err := r.InTx(ctx, func(q *Queries) error {
		var err error
		if s.Categories, err = q.ListCategories(ctx, userID, ""); err != nil {
			return err
		}
		if s.CreditCards, err = q.ListCreditCards(ctx, userID); err != nil {
			return err
		}
		if s.Bills, err = q.ListBills(ctx, userID); err != nil {
			return err
		}
		if s.FixedExpenses, err = q.ListFixedExpenses(ctx, userID); err != nil {
			return err
		}
		if s.FixedIncomes, err = q.ListFixedIncomes(ctx, userID); err != nil {
			return err
		}
		if s.Expenses, err = q.ListExpenses(ctx, userID, MonthFilter{}); err != nil {
			return err
		}
		if s.Incomes, err = q.ListIncomes(ctx, userID, MonthFilter{}); err != nil {
			return err
		}
		if s.Investments, err = q.ListInvestments(ctx, userID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return s, nil
}
