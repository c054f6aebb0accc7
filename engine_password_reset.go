package authgate

import (
	"context"
	"errors"
)

// RequestPasswordReset issues and mails a reset code for email. Unknown
// and not-yet-activated addresses fail with [ErrNotFound]; issuance for
// a known account is throttled per address with [ErrRateLimited].
// Re-requesting within the code's lifetime replaces the active code,
// leaving the old one rejected as superseded.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if e == nil || e.credentials == nil || e.codes == nil {
		return ErrEngineNotReady
	}
	if !ValidEmail(email) {
		return ErrInvalidFormat
	}

	user, err := e.credentials.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrUnavailable
	}
	if !user.Active {
		return ErrNotFound
	}

	if err := e.issueCode(ctx, email, PurposePasswordReset); err != nil {
		return err
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, user.ID, email, "", nil, nil)
	return nil
}

// ConfirmPasswordReset consumes a reset code and installs the new
// password. The code is the single arbitration point: concurrent
// confirmations for the same email see exactly one winner. Installing
// a new password never revokes issued tokens; revocation stays an
// explicit [Engine.Logout] or [Engine.RevokeToken] action.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, req ResetRequest) error {
	if e == nil || e.credentials == nil || e.codes == nil {
		return ErrEngineNotReady
	}

	if !ValidEmail(req.Email) || !ValidPassword(req.NewPassword) {
		e.metricInc(MetricPasswordResetFailure)
		return ErrInvalidFormat
	}
	if req.NewPassword != req.ConfirmPassword {
		e.metricInc(MetricPasswordResetFailure)
		return ErrPasswordMismatch
	}
	if req.Code == "" {
		e.metricInc(MetricPasswordResetFailure)
		return ErrCodeMismatch
	}

	user, err := e.credentials.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.metricInc(MetricPasswordResetFailure)
			return ErrNotFound
		}
		return ErrUnavailable
	}
	if !user.Active {
		e.metricInc(MetricPasswordResetFailure)
		return ErrNotFound
	}

	// Hash before consuming so a hashing fault cannot burn the code.
	newHash, err := e.passwordHash.Hash(req.NewPassword)
	if err != nil {
		return ErrUnavailable
	}

	if _, err := e.consumeCode(ctx, req.Email, PurposePasswordReset, req.Code); err != nil {
		e.metricInc(MetricPasswordResetFailure)
		return err
	}

	if err := e.credentials.UpdatePassword(ctx, user.ID, newHash); err != nil {
		// The code is spent; the user requests a fresh one and retries.
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, user.ID, req.Email, "", err, nil)
		return ErrUnavailable
	}

	// A successful reset clears the login failure counter so the user
	// is not locked out of the password they just set.
	_ = e.limiter.ResetLogin(ctx, user.Username, clientIPFromContext(ctx))

	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, user.ID, req.Email, "", nil, nil)
	return nil
}
