package storage

import (
	"context"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

const cardColumns = `id, user_id, name, closing_day, due_day, credit_limit_cents, created_at, updated_at`

func scanCard(s scanner) (core.CreditCard, error) {
	var c core.CreditCard
	err := s.Scan(&c.ID, &c.UserID, &c.Name, &c.ClosingDay, &c.DueDay, &c.Limit,
		(*timestamp)(&c.CreatedAt), (*timestamp)(&c.UpdatedAt))
	return c, err
}

func (q *Queries) CreateCreditCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error) {
	c.Meta = q.newMeta(c.UserID)
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO credit_cards (`+cardColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.ClosingDay, c.DueDay, c.Limit, formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return core.CreditCard{}, mapError(err, "credit card")
	}
	return c, nil
}

func (q *Queries) GetCreditCard(ctx context.Context, userID, id string) (core.CreditCard, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM credit_cards WHERE user_id = ? AND id = ?`, userID, id)
	c, err := scanCard(row)
	return c, mapError(err, "credit card")
}

func (q *Queries) ListCreditCards(ctx context.Context, userID string) ([]core.CreditCard, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM credit_cards WHERE user_id = ? ORDER BY name, id`, userID)
	return collect(rows, err, "list credit cards", scanCard)
}

func (q *Queries) UpdateCreditCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error) {
	c.UpdatedAt = q.now()
	res, err := q.db.ExecContext(ctx,
		`UPDATE credit_cards SET name = ?, closing_day = ?, due_day = ?, credit_limit_cents = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		c.Name, c.ClosingDay, c.DueDay, c.Limit, formatTime(c.UpdatedAt), c.UserID, c.ID)
	if err := expectOne(res, err, "credit card"); err != nil {
		return core.CreditCard{}, err
	}
	return q.GetCreditCard(ctx, c.UserID, c.ID)
}

// DeleteCreditCard removes the card; its bills cascade and its expenses,
// rules and purchases lose the card reference.
func (q *Queries) DeleteCreditCard(ctx context.Context, userID, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM credit_cards WHERE user_id = ? AND id = ?`, userID, id)
	return expectOne(res, err, "credit card")
}

// billSelect derives each bill's total from the expenses attributed to it.
const billSelect = `SELECT b.id, b.user_id, b.credit_card_id, b.year, b.month, b.is_paid,
       COALESCE((SELECT SUM(e.amount_cents) FROM expenses e WHERE e.credit_card_bill_id = b.id), 0),
       b.created_at, b.updated_at
  FROM credit_card_bills b`

func scanBill(s scanner) (core.CreditCardBill, error) {
	var b core.CreditCardBill
	err := s.Scan(&b.ID, &b.UserID, &b.CreditCardID, &b.Year, &b.Month, &b.IsPaid, &b.TotalAmount,
		(*timestamp)(&b.CreatedAt), (*timestamp)(&b.UpdatedAt))
	return b, err
}

// EnsureBill returns the id of the card's bill for (year, month), creating it
// on first use.
func (q *Queries) EnsureBill(ctx context.Context, userID, cardID string, year, month int) (string, error) {
	now := formatTime(q.now())
	_, err := q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO credit_card_bills (id, user_id, credit_card_id, year, month, is_paid, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		uuid.NewString(), userID, cardID, year, month, now, now)
	if err != nil {
		return "", mapError(err, "credit card bill")
	}
	var id string
	err = q.db.QueryRowContext(ctx,
		`SELECT id FROM credit_card_bills WHERE credit_card_id = ? AND year = ? AND month = ?`,
		cardID, year, month).Scan(&id)
	return id, mapError(err, "credit card bill")
}

func (q *Queries) GetBill(ctx context.Context, userID, id string) (core.CreditCardBill, error) {
	row := q.db.QueryRowContext(ctx, billSelect+` WHERE b.user_id = ? AND b.id = ?`, userID, id)
	b, err := scanBill(row)
	return b, mapError(err, "credit card bill")
}

func (q *Queries) ListBillsByCard(ctx context.Context, userID, cardID string) ([]core.CreditCardBill, error) {
	rows, err := q.db.QueryContext(ctx,
		billSelect+` WHERE b.user_id = ? AND b.credit_card_id = ? ORDER BY b.year, b.month`, userID, cardID)
	return collect(rows, err, "list credit card bills", scanBill)
}

func (q *Queries) ListBills(ctx context.Context, userID string) ([]core.CreditCardBill, error) {
	rows, err := q.db.QueryContext(ctx,
		billSelect+` WHERE b.user_id = ? ORDER BY b.credit_card_id, b.year, b.month`, userID)
	return collect(rows, err, "list credit card bills", scanBill)
}

func (q *Queries) SetBillPaid(ctx context.Context, userID, id string, paid bool) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE credit_card_bills SET is_paid = ?, updated_at = ? WHERE user_id = ? AND id = ?`,
		paid, formatTime(q.now()), userID, id)
	return expectOne(res, err, "credit card bill")
}

// DeleteEmptyBills drops unpaid bills of the card that no expense points at.
func (q *Queries) DeleteEmptyBills(ctx context.Context, cardID string) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM credit_card_bills
		 WHERE credit_card_id = ? AND is_paid = 0
		   AND NOT EXISTS (SELECT 1 FROM expenses e WHERE e.credit_card_bill_id = credit_card_bills.id)`,
		cardID)
	return mapError(err, "credit card bills")
}
