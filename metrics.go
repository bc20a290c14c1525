package quillauth

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricRegisterSuccess counts registrations that sent a confirmation email.
	MetricRegisterSuccess MetricID = iota
	// MetricRegisterResend counts re-registrations that re-sent an existing token.
	MetricRegisterResend
	// MetricRegisterFailure counts terminal registration failures.
	MetricRegisterFailure
	// MetricVerifySuccess counts confirmed email verifications.
	MetricVerifySuccess
	// MetricVerifyFailure counts failed verification attempts.
	MetricVerifyFailure
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess
	// MetricLoginFailure counts failed logins.
	MetricLoginFailure
	// MetricForgotPasswordSent counts reset emails handed to the notifier.
	MetricForgotPasswordSent
	// MetricForgotPasswordFailure counts failed forgot-password requests.
	MetricForgotPasswordFailure
	// MetricResetSuccess counts persisted password resets.
	MetricResetSuccess
	// MetricResetFailure counts failed reset attempts.
	MetricResetFailure
	// MetricHashUpgraded counts stored hashes transparently upgraded on login.
	MetricHashUpgraded

	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds per-flow counters. All methods are safe for concurrent use
// and are no-ops on a nil or disabled receiver.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics builds a Metrics set; disabled metrics keep every operation a
// no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters are being collected.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value returns the current counter value.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
