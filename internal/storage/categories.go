package storage

import (
	"context"
	"strings"

	"fintrack/internal/core"
)

const categoryColumns = `id, user_id, kind, name, color, created_at, updated_at`

func scanCategory(s scanner) (core.Category, error) {
	var c core.Category
	err := s.Scan(&c.ID, &c.UserID, &c.Kind, &c.Name, &c.Color,
		(*timestamp)(&c.CreatedAt), (*timestamp)(&c.UpdatedAt))
	return c, err
}

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Meta = q.newMeta(c.UserID)
	c.Name = strings.TrimSpace(c.Name)
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, string(c.Kind), c.Name, c.Color, formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return core.Category{}, mapError(err, "category")
	}
	return c, nil
}

func (q *Queries) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? AND id = ?`, userID, id)
	c, err := scanCategory(row)
	return c, mapError(err, "category")
}

// ListCategories lists the user's categories of kind, or all when kind is empty.
func (q *Queries) ListCategories(ctx context.Context, userID string, kind core.CategoryKind) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE user_id = ? AND (? = '' OR kind = ?)
		 ORDER BY kind, name`, userID, string(kind), string(kind))
	return collect(rows, err, "list categories", scanCategory)
}

func (q *Queries) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.UpdatedAt = q.now()
	res, err := q.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, color = ?, updated_at = ?
		 WHERE user_id = ? AND id = ? AND kind = ?`,
		strings.TrimSpace(c.Name), c.Color, formatTime(c.UpdatedAt), c.UserID, c.ID, string(c.Kind))
	if err := expectOne(res, err, "category"); err != nil {
		return core.Category{}, err
	}
	return q.GetCategory(ctx, c.UserID, c.ID)
}

// CategoryInUse reports whether any rule, ledger entry or purchase points at id.
func (q *Queries) CategoryInUse(ctx context.Context, id string) (bool, error) {
	var used bool
	err := q.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM expenses WHERE category_id = ?)
		     OR EXISTS (SELECT 1 FROM incomes WHERE category_id = ?)
		     OR EXISTS (SELECT 1 FROM fixed_expenses WHERE category_id = ?)
		     OR EXISTS (SELECT 1 FROM fixed_incomes WHERE category_id = ?)
		     OR EXISTS (SELECT 1 FROM purchases WHERE category_id = ?)`,
		id, id, id, id, id).Scan(&used)
	return used, mapError(err, "category usage")
}

func (q *Queries) DeleteCategory(ctx context.Context, userID, id string, kind core.CategoryKind) error {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM categories WHERE user_id = ? AND id = ? AND kind = ?`, userID, id, string(kind))
	return expectOne(res, err, "category")
}
