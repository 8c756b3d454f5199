package storage

import (
	"context"

	"fintrack/internal/core"
)

const fixedExpenseColumns = `id, user_id, name, amount_cents, due_day, category_id, credit_card_id,
       is_active, start_date, end_date, created_at, updated_at`

func scanFixedExpense(s scanner) (core.FixedExpense, error) {
	var f core.FixedExpense
	err := s.Scan(&f.ID, &f.UserID, &f.Name, &f.Amount, &f.DueDay, &f.CategoryID,
		(*nullString)(&f.CreditCardID), &f.IsActive, &f.StartDate, &f.EndDate,
		(*timestamp)(&f.CreatedAt), (*timestamp)(&f.UpdatedAt))
	return f, err
}

func (q *Queries) CreateFixedExpense(ctx context.Context, f core.FixedExpense) (core.FixedExpense, error) {
	f.Meta = q.newMeta(f.UserID)
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO fixed_expenses (`+fixedExpenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.Name, f.Amount, f.DueDay, f.CategoryID, nullable(f.CreditCardID),
		f.IsActive, f.StartDate, f.EndDate, formatTime(f.CreatedAt), formatTime(f.UpdatedAt))
	if err != nil {
		return core.FixedExpense{}, mapError(err, "fixed expense")
	}
	return f, nil
}

func (q *Queries) GetFixedExpense(ctx context.Context, userID, id string) (core.FixedExpense, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+fixedExpenseColumns+` FROM fixed_expenses WHERE user_id = ? AND id = ?`, userID, id)
	f, err := scanFixedExpense(row)
	return f, mapError(err, "fixed expense")
}

func (q *Queries) ListFixedExpenses(ctx context.Context, userID string) ([]core.FixedExpense, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+fixedExpenseColumns+` FROM fixed_expenses WHERE user_id = ? ORDER BY name, id`, userID)
	return collect(rows, err, "list fixed expenses", scanFixedExpense)
}

func (q *Queries) UpdateFixedExpense(ctx context.Context, f core.FixedExpense) (core.FixedExpense, error) {
	f.UpdatedAt = q.now()
	res, err := q.db.ExecContext(ctx,
		`UPDATE fixed_expenses SET name = ?, amount_cents = ?, due_day = ?, category_id = ?, credit_card_id = ?,
		        is_active = ?, start_date = ?, end_date = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		f.Name, f.Amount, f.DueDay, f.CategoryID, nullable(f.CreditCardID),
		f.IsActive, f.StartDate, f.EndDate, formatTime(f.UpdatedAt), f.UserID, f.ID)
	if err := expectOne(res, err, "fixed expense"); err != nil {
		return core.FixedExpense{}, err
	}
	return q.GetFixedExpense(ctx, f.UserID, f.ID)
}

func (q *Queries) DeleteFixedExpense(ctx context.Context, userID, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM fixed_expenses WHERE user_id = ? AND id = ?`, userID, id)
	return expectOne(res, err, "fixed expense")
}

const fixedIncomeColumns = `id, user_id, name, amount_cents, day_of_month, category_id,
       is_active, start_date, end_date, created_at, updated_at`

func scanFixedIncome(s scanner) (core.FixedIncome, error) {
	var f core.FixedIncome
	err := s.Scan(&f.ID, &f.UserID, &f.Name, &f.Amount, &f.DayOfMonth, &f.CategoryID,
		&f.IsActive, &f.StartDate, &f.EndDate,
		(*timestamp)(&f.CreatedAt), (*timestamp)(&f.UpdatedAt))
	return f, err
}

func (q *Queries) CreateFixedIncome(ctx context.Context, f core.FixedIncome) (core.FixedIncome, error) {
	f.Meta = q.newMeta(f.UserID)
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO fixed_incomes (`+fixedIncomeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.Name, f.Amount, f.DayOfMonth, f.CategoryID,
		f.IsActive, f.StartDate, f.EndDate, formatTime(f.CreatedAt), formatTime(f.UpdatedAt))
	if err != nil {
		return core.FixedIncome{}, mapError(err, "fixed income")
	}
	return f, nil
}

func (q *Queries) GetFixedIncome(ctx context.Context, userID, id string) (core.FixedIncome, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+fixedIncomeColumns+` FROM fixed_incomes WHERE user_id = ? AND id = ?`, userID, id)
	f, err := scanFixedIncome(row)
	return f, mapError(err, "fixed income")
}

func (q *Queries) ListFixedIncomes(ctx context.Context, userID string) ([]core.FixedIncome, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+fixedIncomeColumns+` FROM fixed_incomes WHERE user_id = ? ORDER BY name, id`, userID)
	return collect(rows, err, "list fixed incomes", scanFixedIncome)
}

func (q *Queries) UpdateFixedIncome(ctx context.Context, f core.FixedIncome) (core.FixedIncome, error) {
	f.UpdatedAt = q.now()
	res, err := q.db.ExecContext(ctx,
		`UPDATE fixed_incomes SET name = ?, amount_cents = ?, day_of_month = ?, category_id = ?,
		        is_active = ?, start_date = ?, end_date = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		f.Name, f.Amount, f.DayOfMonth, f.CategoryID,
		f.IsActive, f.StartDate, f.EndDate, formatTime(f.UpdatedAt), f.UserID, f.ID)
	if err := expectOne(res, err, "fixed income"); err != nil {
		return core.FixedIncome{}, err
	}
	return q.GetFixedIncome(ctx, f.UserID, f.ID)
}

func (q *Queries) DeleteFixedIncome(ctx context.Context, userID, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM fixed_incomes WHERE user_id = ? AND id = ?`, userID, id)
	return expectOne(res, err, "fixed income")
}
