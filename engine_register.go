package quillauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/quillauth/quillauth/validate"
)

// Register starts the email-ownership flow for a new or returning address.
// password may be empty for verification-link-only registration.
//
// Outcomes:
//   - fresh address: record created unverified, confirmation email sent
//   - unverified record with an outstanding token: the existing token is
//     re-sent, no duplicate record (RegisterResult.Resent is true)
//   - verified record: ErrAlreadyRegistered, nothing is sent
//   - inconsistent record: ErrRegistrationFailure, nothing is sent
func (e *Engine) Register(ctx context.Context, email, pw string) (*RegisterResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	canonical, err := validate.Canonicalize(email)
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		return nil, ErrInvalidEmailAddress
	}
	normalized := e.config.Normalizer(canonical)

	existing, err := e.store.FindByEmail(ctx, normalized)
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		e.log.Error().Err(err).Str("flow", "register").Msg("credential store lookup failed")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var result *RegisterResult
	var verificationToken string

	switch {
	case existing == nil:
		result, verificationToken, err = e.registerNew(ctx, normalized, pw)
		if err != nil {
			return nil, err
		}

	case !existing.Verified && existing.VerificationToken != "":
		// Resend: reuse the outstanding token, do not create a duplicate.
		result = &RegisterResult{ID: existing.ID, Email: existing.Email, Resent: true}
		verificationToken = existing.VerificationToken

	case existing.Verified:
		e.metricInc(MetricRegisterFailure)
		return nil, ErrAlreadyRegistered

	default:
		// Unverified with no outstanding token: the record violates the
		// token/expiry invariant. Log it, keep the response generic.
		e.metricInc(MetricRegisterFailure)
		e.log.Error().Str("flow", "register").Str("record_id", existing.ID.String()).
			Msg("unverified record without outstanding token")
		return nil, ErrRegistrationFailure
	}

	url, err := e.linkURL(e.config.VerificationURLBase, result.ID.String(), verificationToken)
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		e.log.Error().Err(err).Str("flow", "register").Msg("verification link build failed")
		return nil, ErrRegistrationFailure
	}

	if err := e.notifier.SendVerification(ctx, result.Email, url); err != nil {
		e.metricInc(MetricRegisterFailure)
		e.log.Error().Err(err).Str("flow", "register").Msg("verification email send failed")
		return nil, fmt.Errorf("%w: %v", ErrNotifierUnavailable, err)
	}

	if result.Resent {
		e.metricInc(MetricRegisterResend)
	} else {
		e.metricInc(MetricRegisterSuccess)
	}
	return result, nil
}

func (e *Engine) registerNew(ctx context.Context, normalized, pw string) (*RegisterResult, string, error) {
	var hash string
	if pw != "" {
		if err := e.config.Strength(pw); err != nil {
			e.metricInc(MetricRegisterFailure)
			return nil, "", fmt.Errorf("%w: %v", ErrWeakPassword, err)
		}
		var err error
		hash, err = e.hasher.Hash(pw)
		if err != nil {
			e.metricInc(MetricRegisterFailure)
			e.log.Error().Err(err).Str("flow", "register").Msg("password hashing failed")
			return nil, "", ErrRegistrationFailure
		}
	}

	verificationToken, err := e.codec.NewVerificationToken()
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		return nil, "", ErrRegistrationFailure
	}
	expiresAt := e.now().Add(e.config.TokenTTL)

	id, err := e.store.Create(ctx, normalized, hash, verificationToken, expiresAt)
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		if errors.Is(err, ErrDuplicateEmail) {
			// Lost a race with a concurrent registration of the same address.
			return nil, "", ErrAlreadyRegistered
		}
		e.log.Error().Err(err).Str("flow", "register").Msg("credential store create failed")
		return nil, "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &RegisterResult{ID: id, Email: normalized}, verificationToken, nil
}
