package storage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

const userColumns = `id, name, email, password_hash, created_at, updated_at`

func scanUser(s scanner) (core.User, error) {
	var u core.User
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		(*timestamp)(&u.CreatedAt), (*timestamp)(&u.UpdatedAt))
	return u, err
}

func (q *Queries) CreateUser(ctx context.Context, name, email, passwordHash string) (core.User, error) {
	now := q.now()
	u := core.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, formatTime(now), formatTime(now))
	if err != nil {
		return core.User{}, mapError(err, "user")
	}
	return u, nil
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	return u, mapError(err, "user")
}

func (q *Queries) GetUser(ctx context.Context, id string) (core.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	return u, mapError(err, "user")
}

// ListUserIDs returns every user id, oldest first.
func (q *Queries) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at, id`)
	return collect(rows, err, "list users", func(s scanner) (string, error) {
		var id string
		err := s.Scan(&id)
		return id, err
	})
}

func (q *Queries) CreateSession(ctx context.Context, s core.Session) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		s.Token, s.UserID, formatTime(s.ExpiresAt), formatTime(s.CreatedAt))
	return mapError(err, "session")
}

func (q *Queries) GetSession(ctx context.Context, token string) (core.Session, error) {
	var s core.Session
	err := q.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = ?`, token).
		Scan(&s.Token, &s.UserID, (*timestamp)(&s.ExpiresAt), (*timestamp)(&s.CreatedAt))
	return s, mapError(err, "session")
}

func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return mapError(err, "session")
}

// DeleteExpiredSessions removes sessions that expired before now.
func (q *Queries) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, formatTime(now))
	if err != nil {
		return 0, mapError(err, "expired sessions")
	}
	return res.RowsAffected()
}
