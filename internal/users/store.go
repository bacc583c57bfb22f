package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"wisevault/internal/domain"
)

var (
	ErrUserExists         = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Store persists user credentials in SQLite. Accounts and loans live only
// in memory; users are the one durable piece of state, matching the flat
// credential file of earlier versions.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = "wisevault.db"
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open user store: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password TEXT NOT NULL,
			role     TEXT NOT NULL DEFAULT 'user',
			created_at DATETIME DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
		);
	`)
	if err != nil {
		return fmt.Errorf("init user schema: %w", err)
	}
	return nil
}

// Register stores a new user. Duplicate usernames are rejected via the
// primary key, so two racing registrations cannot both succeed.
func (s *Store) Register(ctx context.Context, username, password, role string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password, role) VALUES (?, ?, ?)",
		username, password, role)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: %s", ErrUserExists, username)
		}
		return fmt.Errorf("register insert: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered",
		slog.String("username", username),
		slog.String("role", role))
	return nil
}

// Authenticate resolves a username/password pair into a Principal. The
// store never reveals whether the username or the password was wrong.
func (s *Store) Authenticate(ctx context.Context, username, password string) (domain.Principal, error) {
	var u domain.User
	err := s.db.GetContext(ctx, &u,
		"SELECT username, password, role FROM users WHERE username = ?", username)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Principal{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.Principal{}, fmt.Errorf("authenticate lookup: %w", err)
	}
	if u.Password != password {
		return domain.Principal{}, ErrInvalidCredentials
	}
	return u.Principal(), nil
}

// EnsureManager seeds the default manager account when it is missing, so a
// fresh installation is never locked out.
func (s *Store) EnsureManager(ctx context.Context, username, password string) error {
	err := s.Register(ctx, username, password, domain.RoleManager)
	if errors.Is(err, ErrUserExists) {
		return nil
	}
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
