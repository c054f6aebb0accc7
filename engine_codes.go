package authgate

import (
	"context"
	"errors"

	"github.com/halcyondev/authgate/internal"
	"github.com/halcyondev/authgate/internal/rate"
	"github.com/halcyondev/authgate/internal/stores"
)

// issueCode generates, stores, and dispatches a one-time code for
// (email, purpose). The rate limiter is consulted first; nothing is
// stored for a throttled request. A dispatch failure rolls back both
// the stored code and the issuance window, so the caller can retry and
// the system never believes an undelivered code was sent.
func (e *Engine) issueCode(ctx context.Context, email string, purpose CodePurpose) error {
	if err := e.limiter.CheckCodeIssue(ctx, email, purpose.String()); err != nil {
		mapped := mapRateError(err)
		if errors.Is(mapped, ErrRateLimited) {
			e.metricInc(MetricCodeIssueRateLimited)
		}
		return mapped
	}

	code, err := internal.NewOTP(e.config.Codes.Digits)
	if err != nil {
		return ErrUnavailable
	}

	if err := e.codes.Issue(ctx, email, purpose.String(), internal.HashCode(code), e.config.Codes.CodeTTL); err != nil {
		return mapCodeStoreError(err)
	}

	if err := e.mailer.SendCode(ctx, email, purpose, code, e.config.Codes.CodeTTL); err != nil {
		_ = e.codes.Delete(ctx, email, purpose.String())
		_ = e.limiter.ReleaseCodeIssue(ctx, email, purpose.String())
		e.metricInc(MetricCodeDispatchFailed)
		e.emitAudit(ctx, auditEventCodeDispatchFailed, false, "", email, "", err, func() map[string]string {
			return map[string]string{"purpose": purpose.String()}
		})
		return ErrDispatchFailed
	}

	e.metricInc(MetricCodeIssued)
	return nil
}

// consumeCode validates and consumes the active code for
// (email, purpose) as a single atomic step. On success the returned
// record can be handed to restoreCode if the mutation that motivated
// the consumption cannot take effect.
func (e *Engine) consumeCode(ctx context.Context, email string, purpose CodePurpose, submitted string) (*stores.CodeRecord, error) {
	record, err := e.codes.Consume(ctx, email, purpose.String(), internal.HashCode(submitted), e.config.Codes.MaxAttempts)
	if err != nil {
		mapped := mapCodeStoreError(err)
		switch {
		case errors.Is(mapped, ErrCodeAttempts):
			e.metricInc(MetricCodeAttemptsExceeded)
		case errors.Is(mapped, ErrUnavailable):
		default:
			e.metricInc(MetricCodeRejected)
		}
		return nil, mapped
	}

	e.metricInc(MetricCodeConsumed)
	return record, nil
}

func (e *Engine) restoreCode(ctx context.Context, email string, purpose CodePurpose, record *stores.CodeRecord) {
	_ = e.codes.Restore(ctx, email, purpose.String(), record)
}

func mapRateError(err error) error {
	switch {
	case errors.Is(err, rate.ErrRateLimited):
		return ErrRateLimited
	default:
		return ErrUnavailable
	}
}

func mapCodeStoreError(err error) error {
	switch {
	case errors.Is(err, stores.ErrCodeNotFound):
		return ErrCodeExpired
	case errors.Is(err, stores.ErrCodeConsumed):
		return ErrCodeAlreadyUsed
	case errors.Is(err, stores.ErrCodeSuperseded):
		return ErrCodeSuperseded
	case errors.Is(err, stores.ErrCodeMismatch):
		return ErrCodeMismatch
	case errors.Is(err, stores.ErrCodeAttempts):
		return ErrCodeAttempts
	default:
		return ErrUnavailable
	}
}
