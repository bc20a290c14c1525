package validate

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalidEmail is returned by Canonicalize for anything that does not
// parse as an RFC 5322 address.
var ErrInvalidEmail = errors.New("invalid email address")

// ErrWeakPassword is returned by a strength policy that rejects a password.
var ErrWeakPassword = errors.New("password does not meet the strength policy")

// Normalizer applies the site-specific transform on top of canonicalization.
// Two addresses that normalize identically belong to the same account.
type Normalizer func(email string) string

// StrengthPolicy accepts or rejects a candidate password. A nil return means
// the password is acceptable; rejections should wrap ErrWeakPassword.
type StrengthPolicy func(password string) error

// Canonicalize parses raw as an RFC 5322 address and returns the bare
// address part (no display name). It does not apply site normalization.
func Canonicalize(raw string) (string, error) {
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", ErrInvalidEmail
	}
	return addr.Address, nil
}

// LowercaseNormalizer is the default Normalizer: it case-folds the entire
// address. Lowercasing the local part is not strictly RFC-conformant, but
// matching what every large mail provider does beats the letter of the RFC.
func LowercaseNormalizer(email string) string {
	return strings.ToLower(email)
}

// MinLengthPolicy returns a StrengthPolicy that rejects passwords shorter
// than n bytes.
func MinLengthPolicy(n int) StrengthPolicy {
	return func(password string) error {
		if len(password) < n {
			return ErrWeakPassword
		}
		return nil
	}
}

// DefaultStrengthPolicy rejects passwords shorter than 3 bytes. Sites are
// expected to override this with something stricter.
var DefaultStrengthPolicy = MinLengthPolicy(3)
