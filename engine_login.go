package quillauth

import (
	"context"
	"fmt"

	"github.com/quillauth/quillauth/validate"
)

// Login checks an identifier/password pair against the store. It performs no
// session work itself; on success the caller establishes a session for
// LoginResult.ID tagged with LoginResult.Method.
//
// ErrAccountNotVerified is the one failure a deployment may surface
// distinctly; every other negative outcome should reach the user as the same
// coarse "invalid email or password" message.
func (e *Engine) Login(ctx context.Context, identifier, pw string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	method := LoginMethodEmail
	lookup, err := validate.Canonicalize(identifier)
	if err != nil {
		if !e.config.AllowUsernameLogin {
			e.metricInc(MetricLoginFailure)
			return nil, ErrInvalidEmailAddress
		}
		method = LoginMethodUsername
		lookup = identifier
	}
	lookup = e.config.Normalizer(lookup)

	record, err := e.store.FindByEmail(ctx, lookup)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.log.Error().Err(err).Str("flow", "login").Msg("credential store lookup failed")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	switch {
	case record == nil:
		e.metricInc(MetricLoginFailure)
		return nil, ErrUnknownEmail

	case !record.Verified:
		e.metricInc(MetricLoginFailure)
		return nil, ErrAccountNotVerified

	case record.PasswordHash == "":
		e.metricInc(MetricLoginFailure)
		return nil, ErrPasswordNotSet
	}

	ok, err := e.hasher.Verify(pw, record.PasswordHash)
	if err != nil {
		// Unparseable stored hash: an invariant violation, not a user error.
		e.metricInc(MetricLoginFailure)
		e.log.Error().Err(err).Str("flow", "login").Str("record_id", record.ID.String()).
			Msg("stored password hash unreadable")
		return nil, ErrLoginFailure
	}
	if !ok {
		e.metricInc(MetricLoginFailure)
		return nil, ErrPasswordMismatch
	}

	if e.config.RehashOnLogin {
		e.maybeUpgradeHash(ctx, record, pw)
	}

	e.metricInc(MetricLoginSuccess)
	return &LoginResult{ID: record.ID, Email: record.Email, Method: method}, nil
}

// maybeUpgradeHash re-hashes the password under current parameters when the
// stored hash is legacy or weaker than configured. Best-effort only.
func (e *Engine) maybeUpgradeHash(ctx context.Context, record *AuthRecord, pw string) {
	upgrade, err := e.hasher.NeedsRehash(record.PasswordHash)
	if err != nil || !upgrade {
		return
	}
	newHash, err := e.hasher.Hash(pw)
	if err != nil {
		return
	}
	if err := e.store.SetPasswordHash(ctx, record.ID, newHash); err != nil {
		e.log.Warn().Err(err).Str("flow", "login").Str("record_id", record.ID.String()).
			Msg("hash upgrade not persisted")
		return
	}
	e.metricInc(MetricHashUpgraded)
}
