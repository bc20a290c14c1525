// Package redistore persists auth records in Redis. Records live in a hash
// per id with a separate email index key; the index is written with SETNX so
// two concurrent registrations for one address cannot both win.
package redistore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/quillauth/quillauth"
)

const defaultKeyPrefix = "qa"

const (
	fieldEmail     = "email"
	fieldPassword  = "password_hash"
	fieldToken     = "verification_token"
	fieldExpiresAt = "token_expires_at"
	fieldVerified  = "verified"
)

var (
	errRedisUnavailable = errors.New("auth redis unavailable")
	errNoSuchRecord     = errors.New("no such auth record")
)

// Store implements quillauth.CredentialStore on a Redis client. Safe for
// concurrent use.
type Store struct {
	redis  *redis.Client
	prefix string
}

var _ quillauth.CredentialStore = (*Store)(nil)

// New wraps an existing Redis client. The caller owns the client lifecycle.
func New(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient, prefix: defaultKeyPrefix}
}

func (s *Store) recordKey(id uuid.UUID) string {
	return s.prefix + ":rec:" + id.String()
}

func (s *Store) emailKey(email string) string {
	return s.prefix + ":email:" + email
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*quillauth.AuthRecord, error) {
	rawID, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("corrupt email index for %q: %w", email, err)
	}
	return s.FindByID(ctx, id)
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*quillauth.AuthRecord, error) {
	fields, err := s.redis.HGetAll(ctx, s.recordKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	rec := &quillauth.AuthRecord{
		ID:                id,
		Email:             fields[fieldEmail],
		PasswordHash:      fields[fieldPassword],
		VerificationToken: fields[fieldToken],
		Verified:          fields[fieldVerified] == "1",
	}
	if raw := fields[fieldExpiresAt]; raw != "" && raw != "0" {
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt expiry for %v: %w", id, err)
		}
		rec.TokenExpiresAt = time.Unix(unix, 0).UTC()
	}
	return rec, nil
}

// Create claims the email index with SETNX before writing the record hash, so
// a duplicate registration loses the race cleanly.
func (s *Store) Create(ctx context.Context, email, passwordHash, token string, expiresAt time.Time) (uuid.UUID, error) {
	id := uuid.New()

	claimed, err := s.redis.SetNX(ctx, s.emailKey(email), id.String(), 0).Result()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	if !claimed {
		return uuid.Nil, quillauth.ErrDuplicateEmail
	}

	err = s.redis.HSet(ctx, s.recordKey(id),
		fieldEmail, email,
		fieldPassword, passwordHash,
		fieldToken, token,
		fieldExpiresAt, unixOrZero(expiresAt),
		fieldVerified, "0",
	).Err()
	if err != nil {
		// Release the claim so the address is not stuck pointing at a
		// record that was never written.
		s.redis.Del(ctx, s.emailKey(email))
		return uuid.Nil, fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return id, nil
}

func (s *Store) SetVerified(ctx context.Context, id uuid.UUID) (bool, error) {
	exists, err := s.exists(ctx, id)
	if err != nil || !exists {
		return false, err
	}
	if err := s.redis.HSet(ctx, s.recordKey(id), fieldVerified, "1").Err(); err != nil {
		return false, fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return true, nil
}

func (s *Store) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return s.setFields(ctx, id, fieldPassword, hash)
}

func (s *Store) SetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	return s.setFields(ctx, id, fieldToken, token, fieldExpiresAt, unixOrZero(expiresAt))
}

func (s *Store) setFields(ctx context.Context, id uuid.UUID, pairs ...any) error {
	exists, err := s.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return errNoSuchRecord
	}
	if err := s.redis.HSet(ctx, s.recordKey(id), pairs...).Err(); err != nil {
		return fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := s.redis.Exists(ctx, s.recordKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return n > 0, nil
}

func (s *Store) GetToken(ctx context.Context, id uuid.UUID) (string, error) {
	return s.getField(ctx, id, fieldToken)
}

func (s *Store) GetEmail(ctx context.Context, id uuid.UUID) (string, error) {
	return s.getField(ctx, id, fieldEmail)
}

func (s *Store) GetPasswordHash(ctx context.Context, id uuid.UUID) (string, error) {
	return s.getField(ctx, id, fieldPassword)
}

func (s *Store) GetExpiry(ctx context.Context, id uuid.UUID) (time.Time, error) {
	raw, err := s.getField(ctx, id, fieldExpiresAt)
	if err != nil {
		return time.Time{}, err
	}
	if raw == "" || raw == "0" {
		return time.Time{}, nil
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt expiry for %v: %w", id, err)
	}
	return time.Unix(unix, 0).UTC(), nil
}

func (s *Store) getField(ctx context.Context, id uuid.UUID, field string) (string, error) {
	value, err := s.redis.HGet(ctx, s.recordKey(id), field).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return value, nil
}

func unixOrZero(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.Unix(), 10)
}
