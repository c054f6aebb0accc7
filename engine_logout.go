package authgate

import (
	"context"
	"errors"

	"github.com/halcyondev/authgate/blacklist"
	"github.com/halcyondev/authgate/jwt"
)

// Logout revokes the session carried by tokenStr. Revocation is
// idempotent: logging out an already revoked token succeeds, and an
// expired token is a no-op success since natural expiry already ended
// the session. Only structurally invalid tokens fail, with
// [ErrTokenMalformed].
func (e *Engine) Logout(ctx context.Context, tokenStr string) error {
	return e.revoke(ctx, tokenStr, blacklist.ReasonLogout, auditEventLogout)
}

// RevokeToken force-revokes the session carried by tokenStr on behalf
// of an administrator. Semantics match [Engine.Logout]; only the
// recorded reason differs.
func (e *Engine) RevokeToken(ctx context.Context, tokenStr string) error {
	return e.revoke(ctx, tokenStr, blacklist.ReasonForced, auditEventTokenRevoked)
}

func (e *Engine) revoke(ctx context.Context, tokenStr string, reason blacklist.Reason, eventType string) error {
	if e == nil || e.jwtManager == nil || e.blacklist == nil {
		return ErrEngineNotReady
	}

	claims, err := e.jwtManager.ParseAccess(tokenStr)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			// Already dead; nothing to blacklist.
			return nil
		}
		return ErrTokenMalformed
	}

	ttl := remainingLife(claims.ExpiresAt.Time)
	if err := e.blacklist.Revoke(ctx, claims.ID, reason, ttl); err != nil {
		return ErrUnavailable
	}

	switch reason {
	case blacklist.ReasonLogout:
		e.metricInc(MetricLogout)
	default:
		e.metricInc(MetricTokenRevoked)
	}
	e.emitAudit(ctx, eventType, true, claims.UID, "", claims.ID, nil, nil)
	return nil
}
