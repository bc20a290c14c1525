package quillauth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/google/uuid"

	"github.com/quillauth/quillauth/validate"
)

// ForgotPassword issues a fresh reset token for the address and mails the
// reset link. Whether the address exists is not disclosed: every negative
// path except invalid syntax collapses to ErrForgotPasswordFailure.
func (e *Engine) ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	canonical, err := validate.Canonicalize(email)
	if err != nil {
		e.metricInc(MetricForgotPasswordFailure)
		return nil, ErrInvalidEmailAddress
	}
	normalized := e.config.Normalizer(canonical)

	record, err := e.store.FindByEmail(ctx, normalized)
	if err != nil {
		e.metricInc(MetricForgotPasswordFailure)
		e.log.Error().Err(err).Str("flow", "forgot_password").Msg("credential store lookup failed")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if record == nil || record.Email == "" {
		e.metricInc(MetricForgotPasswordFailure)
		return nil, ErrForgotPasswordFailure
	}

	resetToken, err := e.codec.NewVerificationToken()
	if err != nil {
		e.metricInc(MetricForgotPasswordFailure)
		return nil, ErrForgotPasswordFailure
	}
	expiresAt := e.now().Add(e.config.TokenTTL)

	if err := e.store.SetToken(ctx, record.ID, resetToken, expiresAt); err != nil {
		e.metricInc(MetricForgotPasswordFailure)
		e.log.Error().Err(err).Str("flow", "forgot_password").Msg("reset token persist failed")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	url, err := e.linkURL(e.config.ResetURLBase, record.ID.String(), resetToken)
	if err != nil {
		e.metricInc(MetricForgotPasswordFailure)
		e.log.Error().Err(err).Str("flow", "forgot_password").Msg("reset link build failed")
		return nil, ErrForgotPasswordFailure
	}

	if err := e.notifier.SendPasswordReset(ctx, record.Email, url); err != nil {
		e.metricInc(MetricForgotPasswordFailure)
		e.log.Error().Err(err).Str("flow", "forgot_password").Msg("reset email send failed")
		return nil, fmt.Errorf("%w: %v", ErrNotifierUnavailable, err)
	}

	e.metricInc(MetricForgotPasswordSent)
	return &ForgotPasswordResult{ID: record.ID, Email: record.Email}, nil
}

// ResetPassword consumes a reset link and installs a new password. The check
// order is fixed: decrypt, confirmation match, identifier parse, strength,
// stored-token match, expiry. Each failure is terminal; nothing is retried.
func (e *Engine) ResetPassword(ctx context.Context, encryptedID, encryptedToken, newPassword, confirmPassword string) (*ResetPasswordResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	rawID, rawIDErr := e.codec.Decrypt(encryptedID)
	presented, tokenErr := e.codec.Decrypt(encryptedToken)
	if rawIDErr != nil || tokenErr != nil {
		e.metricInc(MetricResetFailure)
		return nil, ErrUnableToDecrypt
	}

	if newPassword != confirmPassword {
		e.metricInc(MetricResetFailure)
		return nil, ErrPasswordMismatch
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		e.metricInc(MetricResetFailure)
		return nil, ErrUnableToParseIdentifier
	}

	if err := e.config.Strength(newPassword); err != nil {
		e.metricInc(MetricResetFailure)
		return nil, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	stored, err := e.store.GetToken(ctx, id)
	if err != nil {
		e.metricInc(MetricResetFailure)
		e.log.Error().Err(err).Str("flow", "reset_password").Msg("stored token fetch failed")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		e.metricInc(MetricResetFailure)
		return nil, ErrInvalidVerificationKey
	}

	if err := e.checkTokenExpiry(ctx, id, "reset_password"); err != nil {
		e.metricInc(MetricResetFailure)
		return nil, err
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		e.metricInc(MetricResetFailure)
		e.log.Error().Err(err).Str("flow", "reset_password").Msg("password hashing failed")
		return nil, ErrVerificationFailure
	}
	if err := e.store.SetPasswordHash(ctx, id, hash); err != nil {
		e.metricInc(MetricResetFailure)
		e.log.Error().Err(err).Str("flow", "reset_password").Msg("password hash persist failed")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.clearToken(ctx, id, "reset_password")

	email, err := e.store.GetEmail(ctx, id)
	if err != nil {
		// The reset itself succeeded; the result just loses the address.
		e.log.Warn().Err(err).Str("flow", "reset_password").Msg("email fetch after reset failed")
		email = ""
	}

	e.metricInc(MetricResetSuccess)
	return &ResetPasswordResult{ID: id, Email: email}, nil
}
