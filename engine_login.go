package authgate

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Login verifies username/password and mints a session token. The
// failure mode is deliberately flat: unknown usernames, inactive
// accounts, and wrong passwords all return [ErrInvalidCredentials],
// and the unknown-user path performs a dummy hash verification so the
// two cases cost the same.
//
// Failed attempts are counted per username (and optionally per client
// IP from ctx); once the budget is spent, attempts fail with
// [ErrRateLimited] regardless of password correctness until the window
// elapses.
func (e *Engine) Login(ctx context.Context, username, passwd string) (string, error) {
	if e == nil || e.credentials == nil || e.limiter == nil || e.jwtManager == nil {
		return "", ErrEngineNotReady
	}

	ip := clientIPFromContext(ctx)

	if err := e.limiter.CheckLogin(ctx, username, ip); err != nil {
		mapped := mapRateError(err)
		if errors.Is(mapped, ErrRateLimited) {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", "", mapped, func() map[string]string {
				return map[string]string{"username": username}
			})
		}
		return "", mapped
	}

	user, err := e.credentials.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return "", ErrUnavailable
		}
		// Unknown user: burn a verification anyway, then fail the same
		// way a wrong password does.
		_, _ = e.passwordHash.Verify(passwd, e.dummyHash)
		return "", e.failLogin(ctx, username, ip)
	}

	if !user.Active || user.PasswordHash == "" {
		_, _ = e.passwordHash.Verify(passwd, e.dummyHash)
		return "", e.failLogin(ctx, username, ip)
	}

	ok, err := e.passwordHash.Verify(passwd, user.PasswordHash)
	if err != nil || !ok {
		return "", e.failLogin(ctx, username, ip)
	}

	if err := e.limiter.ResetLogin(ctx, username, ip); err != nil {
		return "", ErrUnavailable
	}

	jti := uuid.NewString()
	token, err := e.jwtManager.CreateAccess(user.ID, user.Username, jti)
	if err != nil {
		return "", ErrUnavailable
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, user.Email, jti, nil, nil)
	return token, nil
}

func (e *Engine) failLogin(ctx context.Context, username, ip string) error {
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, "", "", "", ErrInvalidCredentials, func() map[string]string {
		return map[string]string{"username": username}
	})

	// The attempt that crosses the failure threshold still reports
	// invalid credentials; the front gate blocks the ones after it.
	_ = e.limiter.RecordLoginFailure(ctx, username, ip)
	return ErrInvalidCredentials
}
