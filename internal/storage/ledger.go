package storage

import (
	"context"

	"fintrack/internal/core"
)

// MonthFilter restricts ledger listings to one month; the zero value lists all.
type MonthFilter struct {
	Year  int
	Month int
}

func (f MonthFilter) bounds() (string, string) {
	if f.Year == 0 || f.Month == 0 {
		return "0000-01-01", "9999-12-31"
	}
	return core.MonthStart(f.Year, f.Month).String(), core.MonthEnd(f.Year, f.Month).String()
}

const expenseColumns = `id, user_id, description, amount_cents, date, category_id, credit_card_id,
       credit_card_bill_id, fixed_expense_id, purchase_id, installment_number, occurrence_year,
       occurrence_month, created_at, updated_at`

func scanExpense(s scanner) (core.Expense, error) {
	var e core.Expense
	err := s.Scan(&e.ID, &e.UserID, &e.Description, &e.Amount, &e.Date, &e.CategoryID,
		(*nullString)(&e.CreditCardID), (*nullString)(&e.CreditCardBillID),
		(*nullString)(&e.FixedExpenseID), (*nullString)(&e.PurchaseID),
		(*nullInt)(&e.InstallmentNumber), (*nullInt)(&e.OccurrenceYear), (*nullInt)(&e.OccurrenceMonth),
		(*timestamp)(&e.CreatedAt), (*timestamp)(&e.UpdatedAt))
	return e, err
}

func (q *Queries) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Meta = q.newMeta(e.UserID)
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?, ?)`,
		e.ID, e.UserID, e.Description, e.Amount, e.Date, e.CategoryID,
		nullable(e.CreditCardID), nullable(e.CreditCardBillID), nullable(e.FixedExpenseID),
		nullable(e.PurchaseID), nullableInt(e.InstallmentNumber),
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return core.Expense{}, mapError(err, "expense")
	}
	return e, nil
}

// InsertOccurrenceExpense materializes a fixed expense occurrence. It reports
// false when the (rule, year, month) occurrence already exists.
func (q *Queries) InsertOccurrenceExpense(ctx context.Context, e core.Expense, year, month int) (bool, error) {
	e.Meta = q.newMeta(e.UserID)
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?, ?, ?, ?)
		 ON CONFLICT (fixed_expense_id, occurrence_year, occurrence_month)
		 WHERE fixed_expense_id IS NOT NULL DO NOTHING`,
		e.ID, e.UserID, e.Description, e.Amount, e.Date, e.CategoryID,
		nullable(e.CreditCardID), nullable(e.CreditCardBillID), e.FixedExpenseID,
		year, month, formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return false, mapError(err, "materialize expense")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapError(err, "materialize expense")
	}
	return n == 1, nil
}

func (q *Queries) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? AND id = ?`, userID, id)
	e, err := scanExpense(row)
	return e, mapError(err, "expense")
}

func (q *Queries) ListExpenses(ctx context.Context, userID string, f MonthFilter) ([]core.Expense, error) {
	from, to := f.bounds()
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE user_id = ? AND date BETWEEN ? AND ?
		 ORDER BY date, description, id`, userID, from, to)
	return collect(rows, err, "list expenses", scanExpense)
}

func (q *Queries) ListExpensesByCard(ctx context.Context, userID, cardID string) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? AND credit_card_id = ?
		 ORDER BY date, id`, userID, cardID)
	return collect(rows, err, "list card expenses", scanExpense)
}

func (q *Queries) ListExpensesByBill(ctx context.Context, billID string) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE credit_card_bill_id = ? ORDER BY date, id`, billID)
	return collect(rows, err, "list bill expenses", scanExpense)
}

func (q *Queries) ListExpensesByPurchase(ctx context.Context, purchaseID string) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE purchase_id = ? ORDER BY installment_number`, purchaseID)
	return collect(rows, err, "list purchase expenses", scanExpense)
}

func (q *Queries) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.UpdatedAt = q.now()
	res, err := q.db.ExecContext(ctx,
		`UPDATE expenses SET description = ?, amount_cents = ?, date = ?, category_id = ?,
		        credit_card_id = ?, credit_card_bill_id = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		e.Description, e.Amount, e.Date, e.CategoryID,
		nullable(e.CreditCardID), nullable(e.CreditCardBillID), formatTime(e.UpdatedAt), e.UserID, e.ID)
	if err := expectOne(res, err, "expense"); err != nil {
		return core.Expense{}, err
	}
	return q.GetExpense(ctx, e.UserID, e.ID)
}

// SetExpenseBill re-attributes an expense to billID.
func (q *Queries) SetExpenseBill(ctx context.Context, id, billID string) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE expenses SET credit_card_bill_id = ?, updated_at = ? WHERE id = ?`,
		nullable(billID), formatTime(q.now()), id)
	return expectOne(res, err, "expense")
}

func (q *Queries) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM expenses WHERE user_id = ? AND id = ?`, userID, id)
	return expectOne(res, err, "expense")
}

func (q *Queries) DeletePurchaseExpenses(ctx context.Context, purchaseID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM expenses WHERE purchase_id = ?`, purchaseID)
	return mapError(err, "purchase expenses")
}

const incomeColumns = `id, user_id, description, amount_cents, date, category_id, fixed_income_id,
       occurrence_year, occurrence_month, created_at, updated_at`

func scanIncome(s scanner) (core.Income, error) {
	var i core.Income
	err := s.Scan(&i.ID, &i.UserID, &i.Description, &i.Amount, &i.Date, &i.CategoryID,
		(*nullString)(&i.FixedIncomeID), (*nullInt)(&i.OccurrenceYear), (*nullInt)(&i.OccurrenceMonth),
		(*timestamp)(&i.CreatedAt), (*timestamp)(&i.UpdatedAt))
	return i, err
}

func (q *Queries) CreateIncome(ctx context.Context, i core.Income) (core.Income, error) {
	i.Meta = q.newMeta(i.UserID)
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO incomes (`+incomeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?, ?)`,
		i.ID, i.UserID, i.Description, i.Amount, i.Date, i.CategoryID, nullable(i.FixedIncomeID),
		formatTime(i.CreatedAt), formatTime(i.UpdatedAt))
	if err != nil {
		return core.Income{}, mapError(err, "income")
	}
	return i, nil
}

// InsertOccurrenceIncome materializes a fixed income occurrence. It reports
// false when the (rule, year, month) occurrence already exists.
func (q *Queries) InsertOccurrenceIncome(ctx context.Context, i core.Income, year, month int) (bool, error) {
	i.Meta = q.newMeta(i.UserID)
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO incomes (`+incomeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (fixed_income_id, occurrence_year, occurrence_month)
		 WHERE fixed_income_id IS NOT NULL DO NOTHING`,
		i.ID, i.UserID, i.Description, i.Amount, i.Date, i.CategoryID, i.FixedIncomeID,
		year, month, formatTime(i.CreatedAt), formatTime(i.UpdatedAt))
	if err != nil {
		return false, mapError(err, "materialize income")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapError(err, "materialize income")
	}
	return n == 1, nil
}

func (q *Queries) GetIncome(ctx context.Context, userID, id string) (core.Income, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+incomeColumns+` FROM incomes WHERE user_id = ? AND id = ?`, userID, id)
	i, err := scanIncome(row)
	return i, mapError(err, "income")
}

func (q *Queries) ListIncomes(ctx context.Context, userID string, f MonthFilter) ([]core.Income, error) {
	from, to := f.bounds()
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+incomeColumns+` FROM incomes
		 WHERE user_id = ? AND date BETWEEN ? AND ?
		 ORDER BY date, description, id`, userID, from, to)
	return collect(rows, err, "list incomes", scanIncome)
}

func (q *Queries) UpdateIncome(ctx context.Context, i core.Income) (core.Income, error) {
	i.UpdatedAt = q.now()
	res, err := q.db.ExecContext(ctx,
		`UPDATE incomes SET description = ?, amount_cents = ?, date = ?, category_id = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		i.Description, i.Amount, i.Date, i.CategoryID, formatTime(i.UpdatedAt), i.UserID, i.ID)
	if err := expectOne(res, err, "income"); err != nil {
		return core.Income{}, err
	}
	return q.GetIncome(ctx, i.UserID, i.ID)
}

func (q *Queries) DeleteIncome(ctx context.Context, userID, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM incomes WHERE user_id = ? AND id = ?`, userID, id)
	return expectOne(res, err, "income")
}
