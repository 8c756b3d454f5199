package storage

import (
	"context"

	"fintrack/internal/core"
)

const purchaseColumns = `id, user_id, description, total_amount_cents, installments, category_id,
       credit_card_id, purchase_date, created_at, updated_at`

func scanPurchase(s scanner) (core.Purchase, error) {
	var p core.Purchase
	err := s.Scan(&p.ID, &p.UserID, &p.Description, &p.TotalAmount, &p.Installments, &p.CategoryID,
		(*nullString)(&p.CreditCardID), &p.PurchaseDate,
		(*timestamp)(&p.CreatedAt), (*timestamp)(&p.UpdatedAt))
	return p, err
}

func (q *Queries) CreatePurchase(ctx context.Context, p core.Purchase) (core.Purchase, error) {
	p.Meta = q.newMeta(p.UserID)
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO purchases (`+purchaseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Description, p.TotalAmount, p.Installments, p.CategoryID,
		nullable(p.CreditCardID), p.PurchaseDate, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return core.Purchase{}, mapError(err, "purchase")
	}
	return p, nil
}

func (q *Queries) GetPurchase(ctx context.Context, userID, id string) (core.Purchase, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE user_id = ? AND id = ?`, userID, id)
	p, err := scanPurchase(row)
	return p, mapError(err, "purchase")
}

func (q *Queries) ListPurchases(ctx context.Context, userID string) ([]core.Purchase, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE user_id = ? ORDER BY purchase_date DESC, id`, userID)
	return collect(rows, err, "list purchases", scanPurchase)
}

func (q *Queries) UpdatePurchase(ctx context.Context, p core.Purchase) (core.Purchase, error) {
	p.UpdatedAt = q.now()
	res, err := q.db.ExecContext(ctx,
		`UPDATE purchases SET description = ?, total_amount_cents = ?, installments = ?, category_id = ?,
		        credit_card_id = ?, purchase_date = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		p.Description, p.TotalAmount, p.Installments, p.CategoryID,
		nullable(p.CreditCardID), p.PurchaseDate, formatTime(p.UpdatedAt), p.UserID, p.ID)
	if err := expectOne(res, err, "purchase"); err != nil {
		return core.Purchase{}, err
	}
	return q.GetPurchase(ctx, p.UserID, p.ID)
}

// DeletePurchase removes the purchase; installments and their expenses cascade.
func (q *Queries) DeletePurchase(ctx context.Context, userID, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM purchases WHERE user_id = ? AND id = ?`, userID, id)
	return expectOne(res, err, "purchase")
}

const installmentColumns = `id, user_id, purchase_id, installment_number, amount_cents, due_date, is_paid,
       created_at, updated_at`

func scanInstallment(s scanner) (core.Installment, error) {
	var i core.Installment
	err := s.Scan(&i.ID, &i.UserID, &i.PurchaseID, &i.InstallmentNumber, &i.Amount, &i.DueDate, &i.IsPaid,
		(*timestamp)(&i.CreatedAt), (*timestamp)(&i.UpdatedAt))
	return i, err
}

func (q *Queries) CreateInstallment(ctx context.Context, i core.Installment) (core.Installment, error) {
	i.Meta = q.newMeta(i.UserID)
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO installments (`+installmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.UserID, i.PurchaseID, i.InstallmentNumber, i.Amount, i.DueDate, i.IsPaid,
		formatTime(i.CreatedAt), formatTime(i.UpdatedAt))
	if err != nil {
		return core.Installment{}, mapError(err, "installment")
	}
	return i, nil
}

func (q *Queries) ListInstallments(ctx context.Context, purchaseID string) ([]core.Installment, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+installmentColumns+` FROM installments WHERE purchase_id = ? ORDER BY installment_number`,
		purchaseID)
	return collect(rows, err, "list installments", scanInstallment)
}

func (q *Queries) DeleteInstallments(ctx context.Context, purchaseID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM installments WHERE purchase_id = ?`, purchaseID)
	return mapError(err, "installments")
}
