// Package pgstore implements the CredentialStore on PostgreSQL through
// database/sql with the pgx stdlib driver. It is the durable backing
// store for deployments where accounts must outlive the process.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/halcyondev/authgate"
)

// DBTX is the subset of database/sql the store uses. Both *sql.DB and
// *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a PostgreSQL-backed [authgate.CredentialStore]. Uniqueness
// of email and username is enforced by the schema's unique indexes, so
// concurrent creation races resolve to exactly one winner.
type Store struct {
	db DBTX
}

// New returns a Store over db. The schema from [Schema] must already be
// applied.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Schema is the DDL the store expects. Callers apply it through their
// migration tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email         TEXT NOT NULL,
    username      TEXT,
    password_hash TEXT NOT NULL DEFAULT '',
    is_active     BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_key
    ON accounts (lower(email));
CREATE UNIQUE INDEX IF NOT EXISTS accounts_username_key
    ON accounts (lower(username)) WHERE username IS NOT NULL;
`

func (s *Store) CreatePending(ctx context.Context, email string) (authgate.User, error) {
	const insert = `
		INSERT INTO accounts (email)
		VALUES ($1)
		ON CONFLICT (lower(email)) DO NOTHING
		RETURNING id, email, is_active, created_at`

	var user authgate.User
	err := s.db.QueryRowContext(ctx, insert, email).
		Scan(&user.ID, &user.Email, &user.Active, &user.CreatedAt)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return authgate.User{}, mapError(err)
	}

	// Lost the insert race or the row already existed; fetch it and
	// decide by activation state.
	existing, err := s.GetByEmail(ctx, email)
	if err != nil {
		return authgate.User{}, err
	}
	if existing.Active {
		return authgate.User{}, authgate.ErrConflict
	}
	return existing, nil
}

func (s *Store) Activate(ctx context.Context, email, username, passwordHash string) (authgate.User, error) {
	const update = `
		UPDATE accounts
		SET username = $2, password_hash = $3, is_active = TRUE
		WHERE lower(email) = lower($1) AND is_active = FALSE
		RETURNING id, email, username, password_hash, is_active, created_at`

	user, err := s.scanUser(s.db.QueryRowContext(ctx, update, email, username, passwordHash))
	if err != nil {
		if errors.Is(err, authgate.ErrNotFound) {
			// Either no pending row or the account is already active;
			// an active row is a conflict, not a missing one.
			if existing, getErr := s.GetByEmail(ctx, email); getErr == nil && existing.Active {
				return authgate.User{}, authgate.ErrConflict
			}
			return authgate.User{}, authgate.ErrNotFound
		}
		return authgate.User{}, err
	}
	return user, nil
}

func (s *Store) GetByUsername(ctx context.Context, username string) (authgate.User, error) {
	const query = `
		SELECT id, email, username, password_hash, is_active, created_at
		FROM accounts
		WHERE lower(username) = lower($1)`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

func (s *Store) GetByEmail(ctx context.Context, email string) (authgate.User, error) {
	const query = `
		SELECT id, email, username, password_hash, is_active, created_at
		FROM accounts
		WHERE lower(email) = lower($1)`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *Store) GetByID(ctx context.Context, id string) (authgate.User, error) {
	const query = `
		SELECT id, email, username, password_hash, is_active, created_at
		FROM accounts
		WHERE id = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) UpdatePassword(ctx context.Context, userID, newHash string) error {
	const update = `UPDATE accounts SET password_hash = $2 WHERE id = $1`

	res, err := s.db.ExecContext(ctx, update, userID, newHash)
	if err != nil {
		return mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return authgate.ErrNotFound
	}
	return nil
}

func (s *Store) scanUser(row *sql.Row) (authgate.User, error) {
	var (
		user     authgate.User
		username sql.NullString
	)
	err := row.Scan(&user.ID, &user.Email, &username, &user.PasswordHash, &user.Active, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authgate.User{}, authgate.ErrNotFound
		}
		return authgate.User{}, mapError(err)
	}
	user.Username = username.String
	return user, nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return authgate.ErrConflict
	}
	return fmt.Errorf("pgstore: %w", err)
}
