package authgate

import internalmetrics "github.com/halcyondev/authgate/internal/metrics"

// MetricID identifies a specific counter in the in-process metrics
// system.
type MetricID = internalmetrics.MetricID

const (
	MetricLoginSuccess         = internalmetrics.MetricLoginSuccess
	MetricLoginFailure         = internalmetrics.MetricLoginFailure
	MetricLoginRateLimited     = internalmetrics.MetricLoginRateLimited
	MetricLogout               = internalmetrics.MetricLogout
	MetricTokenVerifySuccess   = internalmetrics.MetricTokenVerifySuccess
	MetricTokenVerifyExpired   = internalmetrics.MetricTokenVerifyExpired
	MetricTokenVerifyRevoked   = internalmetrics.MetricTokenVerifyRevoked
	MetricTokenVerifyMalformed = internalmetrics.MetricTokenVerifyMalformed
	MetricCodeIssued           = internalmetrics.MetricCodeIssued
	MetricCodeIssueRateLimited = internalmetrics.MetricCodeIssueRateLimited
	MetricCodeDispatchFailed   = internalmetrics.MetricCodeDispatchFailed
	MetricCodeConsumed         = internalmetrics.MetricCodeConsumed
	MetricCodeRejected         = internalmetrics.MetricCodeRejected
	MetricCodeAttemptsExceeded = internalmetrics.MetricCodeAttemptsExceeded
	MetricRegisterSuccess      = internalmetrics.MetricRegisterSuccess
	MetricRegisterConflict     = internalmetrics.MetricRegisterConflict
	MetricPasswordResetRequest = internalmetrics.MetricPasswordResetRequest
	MetricPasswordResetSuccess = internalmetrics.MetricPasswordResetSuccess
	MetricPasswordResetFailure = internalmetrics.MetricPasswordResetFailure
	MetricTokenRevoked         = internalmetrics.MetricTokenRevoked
)

// Metrics holds the engine's atomic counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all counters.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] instance configured by cfg. When
// Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{Enabled: cfg.Enabled})
}
