package quillauth

import (
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillauth/quillauth/password"
	"github.com/quillauth/quillauth/token"
)

// Builder assembles an Engine. All collaborators are injected here; the
// package keeps no globals, so two engines with different keys or clocks can
// coexist in one process.
type Builder struct {
	config   Config
	store    CredentialStore
	notifier Notifier
	tokenKey []byte
	random   io.Reader
	logger   *zerolog.Logger
	now      func() time.Time

	built bool
}

// New returns a Builder preloaded with defaults.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the configuration. Zero fields are filled with
// defaults at Build time.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore sets the credential store.
func (b *Builder) WithStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithNotifier sets the outbound email collaborator.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithTokenKey sets the 32-byte symmetric key for the URL token codec.
func (b *Builder) WithTokenKey(key []byte) *Builder {
	b.tokenKey = key
	return b
}

// WithRandom overrides the randomness source used for IVs, verification
// tokens, and password salts. Defaults to crypto/rand; tests may inject a
// deterministic reader.
func (b *Builder) WithRandom(r io.Reader) *Builder {
	b.random = r
	return b
}

// WithLogger sets the structured logger. Without one the engine logs nowhere.
func (b *Builder) WithLogger(log zerolog.Logger) *Builder {
	b.logger = &log
	return b
}

// WithClock overrides the time source for token-expiry checks. Defaults to
// time.Now.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration, constructs the codec and hasher, and
// returns the immutable Engine. A Builder can build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("build: credential store is required")
	}
	if b.notifier == nil {
		return nil, errors.New("build: notifier is required")
	}

	cfg := b.config
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	codec, err := token.New(b.tokenKey, b.random)
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(cfg.Hasher, b.random)
	if err != nil {
		return nil, err
	}

	log := zerolog.Nop()
	if b.logger != nil {
		log = *b.logger
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	b.built = true
	return &Engine{
		config:   cfg,
		store:    b.store,
		notifier: b.notifier,
		codec:    codec,
		hasher:   hasher,
		metrics:  NewMetrics(cfg.Metrics),
		log:      log,
		now:      now,
	}, nil
}
