package quillauth

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/quillauth/quillauth/password"
	"github.com/quillauth/quillauth/token"
)

// Engine is the authentication state machine: register, verify-email, login,
// forgot-password, reset-password. Build one through [Builder]; a built
// Engine is immutable and safe for concurrent use.
//
// The Engine holds no durable state of its own. Everything that must survive
// a request lives behind [CredentialStore], whose unique-email constraint is
// the only cross-request synchronization the flows rely on.
type Engine struct {
	config   Config
	store    CredentialStore
	notifier Notifier
	codec    *token.Codec
	hasher   *password.Hasher
	metrics  *Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.store != nil && e.notifier != nil && e.codec != nil && e.hasher != nil
}

// linkURL builds <base>/<encrypted-id>/<encrypted-token> for outbound email.
func (e *Engine) linkURL(base, recordID, verificationToken string) (string, error) {
	encID, err := e.codec.Encrypt(recordID)
	if err != nil {
		return "", err
	}
	encToken, err := e.codec.Encrypt(verificationToken)
	if err != nil {
		return "", err
	}
	return base + "/" + encID + "/" + encToken, nil
}
