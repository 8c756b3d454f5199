package storage

import (
	"context"

	"fintrack/internal/core"
)

const investmentColumns = `id, user_id, name, type, initial_amount_cents, current_amount_cents,
       investment_date, created_at, updated_at`

func scanInvestment(s scanner) (core.Investment, error) {
	var i core.Investment
	err := s.Scan(&i.ID, &i.UserID, &i.Name, &i.Type, &i.InitialAmount, &i.CurrentAmount, &i.InvestmentDate,
		(*timestamp)(&i.CreatedAt), (*timestamp)(&i.UpdatedAt))
	return i, err
}

func (q *Queries) CreateInvestment(ctx context.Context, i core.Investment) (core.Investment, error) {
	i.Meta = q.newMeta(i.UserID)
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO investments (`+investmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.UserID, i.Name, string(i.Type), i.InitialAmount, i.CurrentAmount, i.InvestmentDate,
		formatTime(i.CreatedAt), formatTime(i.UpdatedAt))
	if err != nil {
		return core.Investment{}, mapError(err, "investment")
	}
	return i, nil
}

func (q *Queries) GetInvestment(ctx context.Context, userID, id string) (core.Investment, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+investmentColumns+` FROM investments WHERE user_id = ? AND id = ?`, userID, id)
	i, err := scanInvestment(row)
	return i, mapError(err, "investment")
}

func (q *Queries) ListInvestments(ctx context.Context, userID string) ([]core.Investment, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+investmentColumns+` FROM investments WHERE user_id = ? ORDER BY investment_date, id`, userID)
	return collect(rows, err, "list investments", scanInvestment)
}

func (q *Queries) UpdateInvestment(ctx context.Context, i core.Investment) (core.Investment, error) {
	i.UpdatedAt = q.now()
	res, err := q.db.ExecContext(ctx,
		`UPDATE investments SET name = ?, type = ?, initial_amount_cents = ?, current_amount_cents = ?,
		        investment_date = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		i.Name, string(i.Type), i.InitialAmount, i.CurrentAmount, i.InvestmentDate, formatTime(i.UpdatedAt),
		i.UserID, i.ID)
	if err := expectOne(res, err, "investment"); err != nil {
		return core.Investment{}, err
	}
	return q.GetInvestment(ctx, i.UserID, i.ID)
}

func (q *Queries) DeleteInvestment(ctx context.Context, userID, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM investments WHERE user_id = ? AND id = ?`, userID, id)
	return expectOne(res, err, "investment")
}
