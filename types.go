package quillauth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuthRecord is an immutable snapshot of the persisted identity row keyed by
// email. Stores return copies; the engine never mutates a snapshot in place,
// it asks the store for atomic field-level updates instead.
type AuthRecord struct {
	ID    uuid.UUID
	Email string

	// PasswordHash is empty when no password has been set, e.g. the user
	// registered through a verification-link-only flow.
	PasswordHash string

	// VerificationToken is non-empty while a verification or reset request
	// is outstanding. TokenExpiresAt is meaningful only in that case.
	VerificationToken string
	TokenExpiresAt    time.Time

	// Verified transitions false to true exactly once, never back.
	Verified bool
}

// CredentialStore is the persistence interface the engine consumes. Email
// uniqueness is the store's job: the engine relies on Create failing with
// ErrDuplicateEmail when two concurrent registrations race on one address.
//
// All emails passed in are already canonical and normalized.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*AuthRecord, error)
	FindByID(ctx context.Context, id uuid.UUID) (*AuthRecord, error)

	// Create inserts a new unverified record. passwordHash may be empty.
	Create(ctx context.Context, email, passwordHash, token string, expiresAt time.Time) (uuid.UUID, error)

	// SetVerified marks the record verified. It is idempotent and reports
	// whether the record existed.
	SetVerified(ctx context.Context, id uuid.UUID) (bool, error)

	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error

	// SetToken replaces the outstanding verification token and its expiry.
	// An empty token clears the outstanding request.
	SetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error

	GetToken(ctx context.Context, id uuid.UUID) (string, error)
	GetExpiry(ctx context.Context, id uuid.UUID) (time.Time, error)
	GetEmail(ctx context.Context, id uuid.UUID) (string, error)
	GetPasswordHash(ctx context.Context, id uuid.UUID) (string, error)
}

// Notifier delivers verification and reset links out-of-band. Errors are
// surfaced to the caller as a generic failure; the engine never retries.
type Notifier interface {
	SendVerification(ctx context.Context, email, url string) error
	SendPasswordReset(ctx context.Context, email, url string) error
}

// RegisterResult is returned by Engine.Register on the confirmation-sent
// path.
type RegisterResult struct {
	ID    uuid.UUID
	Email string

	// Resent is true when the address already had an unverified record and
	// the existing token was re-sent instead of creating a duplicate.
	Resent bool
}

// VerifyResult is returned by Engine.VerifyEmail on success. The caller may
// treat the identity as authenticated.
type VerifyResult struct {
	ID    uuid.UUID
	Email string
}

// LoginMethod tags how the presented identifier was interpreted.
type LoginMethod string

const (
	// LoginMethodEmail marks a syntactically valid email identifier.
	LoginMethodEmail LoginMethod = "email"
	// LoginMethodUsername marks a non-email identifier accepted by a
	// username-login deployment.
	LoginMethodUsername LoginMethod = "username"
)

// LoginResult is returned by Engine.Login on success; the caller establishes
// a session for ID using Method as the method tag.
type LoginResult struct {
	ID     uuid.UUID
	Email  string
	Method LoginMethod
}

// ForgotPasswordResult is returned by Engine.ForgotPassword when the reset
// email was handed to the notifier.
type ForgotPasswordResult struct {
	ID    uuid.UUID
	Email string
}

// ResetPasswordResult is returned by Engine.ResetPassword once the new hash
// has been persisted.
type ResetPasswordResult struct {
	ID    uuid.UUID
	Email string
}
