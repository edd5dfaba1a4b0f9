package authcore

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics set.
type MetricID uint16

const (
	MetricRegisterSuccess MetricID = iota
	MetricRegisterDuplicate
	MetricEmailVerifySuccess
	MetricEmailVerifyFailure
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginMFARequired
	MetricMFALoginSuccess
	MetricMFALoginFailure
	MetricRefreshSuccess
	MetricRefreshRotated
	MetricRefreshFailure
	MetricLogout
	MetricPasswordResetRequest
	MetricPasswordResetRateLimited
	MetricPasswordResetSuccess
	MetricPasswordResetFailure
	MetricSessionRevoked
	MetricMFASetupGenerated
	MetricMFAEnabled
	MetricMFARevoked
	MetricValidateSuccess
	MetricValidateFailure

	metricIDCount
)

// Metrics is a fixed set of atomic counters. A disabled or nil Metrics
// no-ops on every call.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics returns a Metrics instance honoring cfg.Enabled.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot copies every counter into a map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
