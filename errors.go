package quillauth

import "errors"

// Protocol outcomes. These are the terminal negative responses of the four
// flows; callers match them with errors.Is and map them to wire payloads.
var (
	// ErrInvalidEmailAddress rejects input that does not parse as an email.
	ErrInvalidEmailAddress = errors.New("invalid email address")
	// ErrWeakPassword rejects a password that fails the strength policy.
	ErrWeakPassword = errors.New("password rejected by strength policy")
	// ErrAlreadyRegistered reports that the address belongs to a verified account.
	ErrAlreadyRegistered = errors.New("email already registered")
	// ErrRegistrationFailure is the generic registration failure for records
	// in an inconsistent state; detail goes to the log, not the caller.
	ErrRegistrationFailure = errors.New("registration failed")
	// ErrForgotPasswordFailure is the uniform forgot-password failure. It is
	// returned for unknown and inconsistent records alike so the response
	// does not reveal whether an address exists.
	ErrForgotPasswordFailure = errors.New("forgot password request failed")
	// ErrUnableToDecrypt reports that an encrypted id or token did not
	// decrypt. Which of the two failed is deliberately not disclosed.
	ErrUnableToDecrypt = errors.New("unable to decrypt key")
	// ErrUnableToParseIdentifier reports a decrypted id that is not a valid
	// record identifier.
	ErrUnableToParseIdentifier = errors.New("unable to parse identifier")
	// ErrInvalidKey collapses every token mismatch during verification:
	// missing stored token, wrong token, record without an email.
	ErrInvalidKey = errors.New("invalid verification key")
	// ErrInvalidVerificationKey is the reset-flow counterpart of ErrInvalidKey.
	ErrInvalidVerificationKey = errors.New("invalid reset verification key")
	// ErrVerificationFailure reports an inconsistent record found mid-verify,
	// e.g. a token with no expiry.
	ErrVerificationFailure = errors.New("verification failed")
	// ErrVerificationTokenExpired reports a matching but stale token.
	ErrVerificationTokenExpired = errors.New("verification token expired")
	// ErrPasswordNotSet reports a verified account with no password on file.
	ErrPasswordNotSet = errors.New("password not set for account")
	// ErrPasswordMismatch covers both a wrong login password and a
	// new/confirm mismatch during reset.
	ErrPasswordMismatch = errors.New("password mismatch")
	// ErrAccountNotVerified reports a login attempt against an account that
	// has not confirmed its email.
	ErrAccountNotVerified = errors.New("account not verified")
	// ErrUnknownEmail reports a login identifier that resolves to no record.
	ErrUnknownEmail = errors.New("no account for email")
	// ErrLoginFailure is the generic login failure for inconsistent records.
	ErrLoginFailure = errors.New("login failed")
)

// Collaborator faults. Distinct from the protocol outcomes above: they mean
// a dependency misbehaved, not that the request was wrong.
var (
	// ErrStoreUnavailable wraps credential-store faults.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrNotifierUnavailable wraps notifier transport faults.
	ErrNotifierUnavailable = errors.New("notifier unavailable")
	// ErrEngineNotReady is returned when a flow runs before Build completed
	// or on a zero Engine.
	ErrEngineNotReady = errors.New("engine not ready")
)

// ErrDuplicateEmail must be returned by CredentialStore.Create when the
// normalized email already has a record. The engine maps it to
// ErrAlreadyRegistered.
var ErrDuplicateEmail = errors.New("email already has a record")
