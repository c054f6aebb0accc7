package authgate

import (
	"context"
	"errors"
	"strings"
)

// SendActivationCode starts registration for email: it creates a
// pending user record if none exists and dispatches an activation code.
// Fails with [ErrConflict] when the email already belongs to an active
// account, [ErrRateLimited] inside the resend window, and
// [ErrDispatchFailed] when delivery fails (the issuance is rolled
// back).
func (e *Engine) SendActivationCode(ctx context.Context, email string) error {
	if e == nil || e.credentials == nil || e.codes == nil || e.mailer == nil {
		return ErrEngineNotReady
	}
	if !ValidEmail(email) {
		return ErrInvalidFormat
	}

	if _, err := e.credentials.CreatePending(ctx, email); err != nil {
		if errors.Is(err, ErrConflict) {
			e.emitAudit(ctx, auditEventSendCode, false, "", email, "", ErrConflict, nil)
			return ErrConflict
		}
		return ErrUnavailable
	}

	if err := e.issueCode(ctx, email, PurposeActivation); err != nil {
		e.emitAudit(ctx, auditEventSendCode, false, "", email, "", err, nil)
		return err
	}

	e.emitAudit(ctx, auditEventSendCode, true, "", email, "", nil, func() map[string]string {
		return map[string]string{"purpose": PurposeActivation.String()}
	})
	return nil
}

// Register completes registration: it validates the request formats,
// consumes the activation code, and activates the pending account with
// the chosen username and password.
//
// Consumption and activation form one all-or-nothing step: the code is
// the single arbitration point for concurrent submissions, and if
// activation then fails on a username conflict the consumed code is
// restored with its remaining TTL, so neither half takes effect.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*UserInfo, error) {
	if e == nil || e.credentials == nil || e.codes == nil {
		return nil, ErrEngineNotReady
	}

	if !ValidEmail(req.Email) || !ValidUsername(req.Username) || !ValidPassword(req.Password) {
		return nil, ErrInvalidFormat
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if req.Code == "" {
		return nil, ErrCodeMismatch
	}

	// Fail fast on a taken username before touching the code. A replayed
	// request finds its own just-registered account here; it falls
	// through so code consumption reports the replay.
	existing, err := e.credentials.GetByUsername(ctx, req.Username)
	switch {
	case err == nil && !strings.EqualFold(existing.Email, req.Email):
		e.metricInc(MetricRegisterConflict)
		return nil, ErrConflict
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, ErrUnavailable
	}

	hash, err := e.passwordHash.Hash(req.Password)
	if err != nil {
		return nil, ErrUnavailable
	}

	record, err := e.consumeCode(ctx, req.Email, PurposeActivation, req.Code)
	if err != nil {
		e.emitAudit(ctx, auditEventRegister, false, "", req.Email, "", err, nil)
		return nil, err
	}

	user, err := e.credentials.Activate(ctx, req.Email, req.Username, hash)
	if err != nil {
		// The code was consumed but the account did not change; undo
		// the consumption so registration stays all-or-nothing.
		e.restoreCode(ctx, req.Email, PurposeActivation, record)

		switch {
		case errors.Is(err, ErrConflict):
			e.metricInc(MetricRegisterConflict)
			e.emitAudit(ctx, auditEventRegister, false, "", req.Email, "", ErrConflict, nil)
			return nil, ErrConflict
		case errors.Is(err, ErrNotFound):
			e.emitAudit(ctx, auditEventRegister, false, "", req.Email, "", ErrNotFound, nil)
			return nil, ErrNotFound
		default:
			return nil, ErrUnavailable
		}
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegister, true, user.ID, req.Email, "", nil, func() map[string]string {
		return map[string]string{"username": req.Username}
	})

	return &UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
	}, nil
}
