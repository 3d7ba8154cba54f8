// Package sqlite provides SQLite persistence for user records.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-token-auth/internal/errors"
	"github.com/jrsteele09/go-token-auth/users"
	_ "modernc.org/sqlite"
)

const inMemory = ":memory:"

var _ users.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *sql.DB
}

// NewUserRepo opens (or creates) the database at dbPath and makes sure the
// schema exists. ":memory:" gives a private in-memory database.
func NewUserRepo(dbPath string) (*UserRepo, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if dbPath == inMemory {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init database: %w", err)
	}
	return &UserRepo{db: db}, nil
}

func (r *UserRepo) Close() error {
	return r.db.Close()
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL DEFAULT '',
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			date_joined   INTEGER NOT NULL
		);`,
	); err != nil {
		return fmt.Errorf("failed to init 'users' table schema: %w", err)
	}
	return nil
}

func (r *UserRepo) Upsert(ctx context.Context, user *users.User) error {
	if user == nil {
		return errors.New("user is required")
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Email = users.NormalizeEmail(user.Email)
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, date_joined)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			password_hash = excluded.password_hash
		`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.DateJoined.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("couldn't upsert user: %w", err)
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("couldn't delete user: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return autherrors.New(autherrors.KindUserNotFound, "sqlite.UserRepo.Delete")
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, date_joined
		FROM users
		WHERE email = ?
		`,
		users.NormalizeEmail(email),
	)
	return scanUser(row, "sqlite.UserRepo.GetByEmail")
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, date_joined
		FROM users
		WHERE id = ?
		`,
		id,
	)
	return scanUser(row, "sqlite.UserRepo.GetByID")
}

func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]*users.User, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, date_joined
		FROM users
		ORDER BY id
		LIMIT ? OFFSET ?
		`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("couldn't list users: %w", err)
	}
	defer rows.Close()

	list := []*users.User{}
	for rows.Next() {
		user, err := scanUser(rows, "sqlite.UserRepo.List")
		if err != nil {
			return nil, err
		}
		list = append(list, user)
	}
	return list, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner, op string) (*users.User, error) {
	var (
		user   users.User
		joined int64
	)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &joined)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, autherrors.New(autherrors.KindUserNotFound, op)
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't read user: %w", err)
	}
	user.DateJoined = time.Unix(0, joined).UTC()
	return &user, nil
}
