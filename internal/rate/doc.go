// Package rate provides Redis-backed fixed-window counters for the
// security-sensitive actions of the engine.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on the first hit, so
// increment-and-check is a single atomic step and concurrent callers can
// never both slip under the threshold. Key prefixes:
//   - agl:  failed logins per username
//   - agli: failed logins per IP
//   - agc:  code issuance per (email, purpose)
//
// # What this package must NOT do
//
//   - Implement flow-specific policy; the engine decides which action a
//     counter guards and what the threshold means.
//   - Be imported outside the authgate module.
package rate
