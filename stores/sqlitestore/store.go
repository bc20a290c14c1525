// Package sqlitestore persists auth records in a SQLite database. It is the
// single-node durable backend; deployments that need shared state across
// processes use the redistore package instead.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/quillauth/quillauth"
)

const schema = `
CREATE TABLE IF NOT EXISTS auth_records (
	id                 TEXT PRIMARY KEY,
	email              TEXT NOT NULL UNIQUE,
	password_hash      TEXT NOT NULL DEFAULT '',
	verification_token TEXT NOT NULL DEFAULT '',
	token_expires_at   INTEGER NOT NULL DEFAULT 0,
	verified           INTEGER NOT NULL DEFAULT 0
);
`

// Store implements quillauth.CredentialStore on a SQLite database. Safe for
// concurrent use; database/sql serializes access to the underlying file.
type Store struct {
	db *sql.DB
}

var _ quillauth.CredentialStore = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	connstr := fmt.Sprintf("file:%v?_journal=wal&_busy_timeout=5000&mode=rwc", path)
	db, err := sql.Open("sqlite3", connstr)
	if err != nil {
		return nil, fmt.Errorf("unable to open %v, cause %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping %v, cause %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to init schema for %v, cause %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

var errNoSuchRecord = errors.New("no such auth record")

func (s *Store) scanRecord(row *sql.Row) (*quillauth.AuthRecord, error) {
	var (
		rec       quillauth.AuthRecord
		rawID     string
		expiresAt int64
	)
	err := row.Scan(&rawID, &rec.Email, &rec.PasswordHash, &rec.VerificationToken, &expiresAt, &rec.Verified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.ID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("corrupt record id %q: %w", rawID, err)
	}
	if expiresAt != 0 {
		rec.TokenExpiresAt = time.Unix(expiresAt, 0).UTC()
	}
	return &rec, nil
}

const selectColumns = `id, email, password_hash, verification_token, token_expires_at, verified`

func (s *Store) FindByEmail(ctx context.Context, email string) (*quillauth.AuthRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM auth_records WHERE email = ?`, email)
	return s.scanRecord(row)
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*quillauth.AuthRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM auth_records WHERE id = ?`, id.String())
	return s.scanRecord(row)
}

// Create inserts a new unverified record. The UNIQUE index on email turns a
// concurrent duplicate insert into quillauth.ErrDuplicateEmail.
func (s *Store) Create(ctx context.Context, email, passwordHash, token string, expiresAt time.Time) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO auth_records (id, email, password_hash, verification_token, token_expires_at, verified)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		id.String(), email, passwordHash, token, unixOrZero(expiresAt))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return uuid.Nil, quillauth.ErrDuplicateEmail
		}
		return uuid.Nil, err
	}
	return id, nil
}

func (s *Store) SetVerified(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE auth_records SET verified = 1 WHERE id = ?`, id.String())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return s.update(ctx, `UPDATE auth_records SET password_hash = ? WHERE id = ?`, hash, id.String())
}

func (s *Store) SetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	return s.update(ctx,
		`UPDATE auth_records SET verification_token = ?, token_expires_at = ? WHERE id = ?`,
		token, unixOrZero(expiresAt), id.String())
}

func (s *Store) update(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNoSuchRecord
	}
	return nil
}

func (s *Store) GetToken(ctx context.Context, id uuid.UUID) (string, error) {
	return s.getString(ctx, `SELECT verification_token FROM auth_records WHERE id = ?`, id)
}

func (s *Store) GetEmail(ctx context.Context, id uuid.UUID) (string, error) {
	return s.getString(ctx, `SELECT email FROM auth_records WHERE id = ?`, id)
}

func (s *Store) GetPasswordHash(ctx context.Context, id uuid.UUID) (string, error) {
	return s.getString(ctx, `SELECT password_hash FROM auth_records WHERE id = ?`, id)
}

func (s *Store) GetExpiry(ctx context.Context, id uuid.UUID) (time.Time, error) {
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT token_expires_at FROM auth_records WHERE id = ?`, id.String()).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if expiresAt == 0 {
		return time.Time{}, nil
	}
	return time.Unix(expiresAt, 0).UTC(), nil
}

func (s *Store) getString(ctx context.Context, query string, id uuid.UUID) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, query, id.String()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
