package quillauth

import (
	"errors"
	"strings"
	"time"

	"github.com/quillauth/quillauth/password"
	"github.com/quillauth/quillauth/validate"
)

// Config carries the tunable behavior of the engine. Zero fields are filled
// from defaultConfig at Build time; a populated Config is treated as
// immutable afterwards.
type Config struct {
	// TokenTTL is the lifetime of a newly issued verification or reset
	// token. Default one day.
	TokenTTL time.Duration

	// VerificationURLBase and ResetURLBase are the link prefixes embedded in
	// outbound email. The encrypted id and token are appended as path
	// segments: <base>/<encrypted-id>/<encrypted-token>.
	VerificationURLBase string
	ResetURLBase        string

	// Normalizer is the site transform applied after canonicalization.
	// Default lowercases the whole address.
	Normalizer validate.Normalizer

	// Strength is the password acceptance policy for registration and reset.
	Strength validate.StrengthPolicy

	// AllowUsernameLogin lets Login accept identifiers that are not
	// syntactically valid emails, for deployments that layer usernames on
	// top. When false (the default) such identifiers are rejected outright.
	AllowUsernameLogin bool

	// RehashOnLogin upgrades a stored hash after a successful login when it
	// was produced with weaker parameters or the legacy scheme. Best-effort:
	// an upgrade failure is logged, never surfaced.
	RehashOnLogin bool

	// Hasher configures the Argon2id cost parameters.
	Hasher password.Config

	// Metrics toggles the in-process counters.
	Metrics MetricsConfig
}

// MetricsConfig toggles metric collection.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		TokenTTL:      24 * time.Hour,
		Normalizer:    validate.LowercaseNormalizer,
		Strength:      validate.DefaultStrengthPolicy,
		RehashOnLogin: true,
		Hasher:        password.DefaultConfig(),
		Metrics:       MetricsConfig{Enabled: true},
	}
}

func (c *Config) applyDefaults() {
	d := defaultConfig()
	if c.TokenTTL <= 0 {
		c.TokenTTL = d.TokenTTL
	}
	if c.Normalizer == nil {
		c.Normalizer = d.Normalizer
	}
	if c.Strength == nil {
		c.Strength = d.Strength
	}
	if c.Hasher == (password.Config{}) {
		c.Hasher = d.Hasher
	}
}

func (c *Config) validate() error {
	if c.VerificationURLBase == "" {
		return errors.New("config: verification URL base is required")
	}
	if c.ResetURLBase == "" {
		return errors.New("config: reset URL base is required")
	}
	if !strings.Contains(c.VerificationURLBase, "://") {
		return errors.New("config: verification URL base must be absolute")
	}
	if !strings.Contains(c.ResetURLBase, "://") {
		return errors.New("config: reset URL base must be absolute")
	}
	return nil
}
