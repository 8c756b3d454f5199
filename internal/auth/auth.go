// Package auth registers users, checks passwords and issues opaque bearer
// sessions stored server side.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
)

const (
	bcryptCost        = 12
	minPasswordLength = 8
	maxPasswordBytes  = 72
	tokenBytes        = 32
)

// Store is the persistence auth needs. *storage.SQLiteRepository satisfies it.
type Store interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	GetUser(ctx context.Context, id string) (core.User, error)
	CreateSession(ctx context.Context, s core.Session) error
	GetSession(ctx context.Context, token string) (core.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Result is returned by Register and Login.
type Result struct {
	AccessToken string    `json:"access_token"`
	User        core.User `json:"user"`
}

type Service struct {
	store Store
	ttl   time.Duration
	cost  int
	now   func() time.Time
}

func NewService(store Store, sessionTTL time.Duration) *Service {
	return &Service{store: store, ttl: sessionTTL, cost: bcryptCost, now: time.Now}
}

// Register creates the user and opens a first session.
func (s *Service) Register(ctx context.Context, name, email, password string) (Result, error) {
	candidate := core.User{Name: name, Email: email}
	if err := candidate.Validate(); err != nil {
		return Result{}, err
	}
	if err := validatePassword(password); err != nil {
		return Result{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Result{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.store.CreateUser(ctx, name, email, string(hash))
	if err != nil {
		return Result{}, fmt.Errorf("register: %w", err)
	}
	slog.InfoContext(ctx, "User registered", "user_id", user.ID)
	return s.issue(ctx, user)
}

// Login checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (Result, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return Result{}, fmt.Errorf("invalid credentials: %w", core.ErrUnauthenticated)
	}
	if err != nil {
		return Result{}, fmt.Errorf("login: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Result{}, fmt.Errorf("invalid credentials: %w", core.ErrUnauthenticated)
	}
	return s.issue(ctx, user)
}

// Authenticate resolves a bearer token to its user. Expired sessions are
// deleted on sight.
func (s *Service) Authenticate(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, fmt.Errorf("missing token: %w", core.ErrUnauthenticated)
	}
	session, err := s.store.GetSession(ctx, token)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("unknown token: %w", core.ErrUnauthenticated)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("load session: %w", err)
	}
	if !s.now().Before(session.ExpiresAt) {
		if err := s.store.DeleteSession(ctx, token); err != nil {
			slog.WarnContext(ctx, "Failed to delete expired session", "error", err)
		}
		return core.User{}, fmt.Errorf("session expired: %w", core.ErrUnauthenticated)
	}
	user, err := s.store.GetUser(ctx, session.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("session user gone: %w", core.ErrUnauthenticated)
	}
	return user, err
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.store.DeleteSession(ctx, token)
}

// PurgeExpired drops every session past its expiry.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx, s.now())
}

func (s *Service) issue(ctx context.Context, user core.User) (Result, error) {
	token, err := newToken()
	if err != nil {
		return Result{}, err
	}
	now := s.now()
	session := core.Session{Token: token, UserID: user.ID, ExpiresAt: now.Add(s.ttl), CreatedAt: now}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return Result{}, fmt.Errorf("create session: %w", err)
	}
	return Result{AccessToken: token, User: user}, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return core.Invalid("password", core.ErrWeakPassword)
	}
	if len(password) > maxPasswordBytes {
		return core.Invalid("password", core.ErrPasswordTooLong)
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
