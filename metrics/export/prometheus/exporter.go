package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/halcyondev/authgate"
)

type metricsSource interface {
	MetricsSnapshot() authgate.MetricsSnapshot
	AuditDropped() uint64
}

type counterDef struct {
	id   authgate.MetricID
	name string
	help string
}

var counterDefs = []counterDef{
	{authgate.MetricRegisterSuccess, "authgate_register_success_total", "Completed registrations."},
	{authgate.MetricRegisterConflict, "authgate_register_conflict_total", "Registrations rejected because the email or username was taken."},
	{authgate.MetricCodeIssued, "authgate_code_issued_total", "One-time codes stored and dispatched."},
	{authgate.MetricCodeIssueRateLimited, "authgate_code_issue_rate_limited_total", "Code requests rejected inside the resend window."},
	{authgate.MetricCodeDispatchFailed, "authgate_code_dispatch_failed_total", "Code issuances rolled back after delivery failure."},
	{authgate.MetricCodeConsumed, "authgate_code_consumed_total", "One-time codes consumed successfully."},
	{authgate.MetricCodeRejected, "authgate_code_rejected_total", "Code submissions rejected as wrong, expired, superseded, or replayed."},
	{authgate.MetricCodeAttemptsExceeded, "authgate_code_attempts_exceeded_total", "Codes invalidated after too many wrong submissions."},
	{authgate.MetricLoginSuccess, "authgate_login_success_total", "Successful logins."},
	{authgate.MetricLoginFailure, "authgate_login_failure_total", "Failed login attempts."},
	{authgate.MetricLoginRateLimited, "authgate_login_rate_limited_total", "Logins blocked by the failure counter."},
	{authgate.MetricLogout, "authgate_logout_total", "Voluntary logouts."},
	{authgate.MetricTokenRevoked, "authgate_token_revoked_total", "Administrative token revocations."},
	{authgate.MetricTokenVerifySuccess, "authgate_token_verify_success_total", "Token verifications that passed all checks."},
	{authgate.MetricTokenVerifyExpired, "authgate_token_verify_expired_total", "Token verifications rejected for expiry."},
	{authgate.MetricTokenVerifyRevoked, "authgate_token_verify_revoked_total", "Token verifications rejected by the blacklist."},
	{authgate.MetricTokenVerifyMalformed, "authgate_token_verify_malformed_total", "Token verifications rejected as structurally invalid."},
	{authgate.MetricPasswordResetRequest, "authgate_password_reset_request_total", "Password reset codes requested."},
	{authgate.MetricPasswordResetSuccess, "authgate_password_reset_success_total", "Password resets completed."},
	{authgate.MetricPasswordResetFailure, "authgate_password_reset_failure_total", "Password reset confirmations rejected."},
}

// Exporter renders engine counters in Prometheus text exposition
// format. It never registers anything globally; callers mount
// [Exporter.Handler] wherever they serve metrics.
type Exporter struct {
	source metricsSource
}

// NewExporter creates an Exporter reading from engine.
func NewExporter(engine *authgate.Engine) *Exporter {
	return &Exporter{source: engine}
}

// NewExporterFromSource creates an Exporter from a custom source.
func NewExporterFromSource(source metricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler returns an http.Handler serving the current counters.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render produces the text exposition body.
func (p *Exporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()

	var b strings.Builder
	b.Grow(4096)

	for _, def := range counterDefs {
		writeCounter(&b, def.name, def.help, snapshot.Counters[def.id])
	}

	writeCounter(&b, "authgate_audit_dropped_total", "Audit events dropped by dispatcher backpressure.", dropped)

	return b.String()
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" counter\n")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
