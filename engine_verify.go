package quillauth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VerifyEmail consumes a verification link: both arguments arrive encrypted
// exactly as the link embedded them. On success the record is marked
// verified and the outstanding token is cleared, so a used link cannot be
// replayed.
//
// Failure responses are coarse on purpose. A decrypt failure never says
// which of the two values was bad; a token mismatch never says whether the
// record exists, holds a different token, or lost its email.
func (e *Engine) VerifyEmail(ctx context.Context, encryptedID, encryptedToken string) (*VerifyResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	id, presented, err := e.decryptLinkPair(encryptedID, encryptedToken)
	if err != nil {
		e.metricInc(MetricVerifyFailure)
		return nil, err
	}

	stored, err := e.store.GetToken(ctx, id)
	if err != nil {
		e.metricInc(MetricVerifyFailure)
		e.log.Error().Err(err).Str("flow", "verify").Msg("stored token fetch failed")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	email, err := e.store.GetEmail(ctx, id)
	if err != nil {
		e.metricInc(MetricVerifyFailure)
		e.log.Error().Err(err).Str("flow", "verify").Msg("stored email fetch failed")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if stored == "" || email == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		e.metricInc(MetricVerifyFailure)
		return nil, ErrInvalidKey
	}

	if err := e.checkTokenExpiry(ctx, id, "verify"); err != nil {
		e.metricInc(MetricVerifyFailure)
		return nil, err
	}

	existed, err := e.store.SetVerified(ctx, id)
	if err != nil {
		e.metricInc(MetricVerifyFailure)
		e.log.Error().Err(err).Str("flow", "verify").Msg("set verified failed")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !existed {
		e.metricInc(MetricVerifyFailure)
		return nil, ErrInvalidKey
	}

	e.clearToken(ctx, id, "verify")

	e.metricInc(MetricVerifySuccess)
	return &VerifyResult{ID: id, Email: email}, nil
}

// decryptLinkPair decrypts the id/token pair of a link and parses the record
// identifier. Both decrypts run before either failure is reported.
func (e *Engine) decryptLinkPair(encryptedID, encryptedToken string) (uuid.UUID, string, error) {
	rawID, idErr := e.codec.Decrypt(encryptedID)
	rawToken, tokenErr := e.codec.Decrypt(encryptedToken)
	if idErr != nil || tokenErr != nil {
		return uuid.Nil, "", ErrUnableToDecrypt
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", ErrUnableToParseIdentifier
	}
	return id, rawToken, nil
}

// checkTokenExpiry enforces the expiry invariant: a record holding a token
// with a zero expiry is inconsistent, a past expiry is a stale token.
func (e *Engine) checkTokenExpiry(ctx context.Context, id uuid.UUID, flow string) error {
	expiresAt, err := e.store.GetExpiry(ctx, id)
	if err != nil {
		e.log.Error().Err(err).Str("flow", flow).Msg("stored expiry fetch failed")
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if expiresAt.IsZero() {
		e.log.Error().Str("flow", flow).Str("record_id", id.String()).
			Msg("token present without expiry")
		return ErrVerificationFailure
	}
	if e.now().After(expiresAt) {
		return ErrVerificationTokenExpired
	}
	return nil
}

// clearToken rotates out a consumed token. Best-effort: the flow already
// succeeded, so a failure here is logged and swallowed.
func (e *Engine) clearToken(ctx context.Context, id uuid.UUID, flow string) {
	if err := e.store.SetToken(ctx, id, "", time.Time{}); err != nil {
		e.log.Warn().Err(err).Str("flow", flow).Str("record_id", id.String()).
			Msg("consumed token not cleared")
	}
}
