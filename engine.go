package authgate

import (
	"context"
	"errors"
	"time"

	"github.com/halcyondev/authgate/blacklist"
	"github.com/halcyondev/authgate/internal/rate"
	"github.com/halcyondev/authgate/internal/stores"
	"github.com/halcyondev/authgate/jwt"
	"github.com/halcyondev/authgate/password"
)

// Engine is the authentication gateway. Registration, login, logout,
// password reset, and token verification all go through it; no other
// component is reachable externally. Instances are built once
// via [Builder.Build] and safe for concurrent use.
type Engine struct {
	config       Config
	credentials  CredentialStore
	codes        *stores.CodeStore
	limiter      *rate.Limiter
	blacklist    *blacklist.Store
	jwtManager   *jwt.Manager
	passwordHash *password.Argon2
	mailer       Mailer
	audit        *auditDispatcher
	metrics      *Metrics

	// dummyHash absorbs a verification for unknown usernames so the
	// login path costs the same whether or not the account exists.
	dummyHash string
}

// Close flushes and stops the audit dispatcher. The engine must not be
// used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a deep copy of the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Take()
}

// BlacklistSize returns the number of live revocation entries. Intended
// for monitoring endpoints, not hot paths.
func (e *Engine) BlacklistSize(ctx context.Context) (int, error) {
	if e == nil || e.blacklist == nil {
		return 0, ErrEngineNotReady
	}
	n, err := e.blacklist.Size(ctx)
	if err != nil {
		return 0, ErrUnavailable
	}
	return n, nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// VerifyToken checks signature, expiry, and revocation for tokenStr and
// returns the bound subject. All three checks run on every call; a
// result is never cached as trusted. Failures map to
// [ErrTokenMalformed], [ErrTokenExpired], and [ErrTokenRevoked]; a
// blacklist outage surfaces as [ErrUnavailable], never as a pass.
func (e *Engine) VerifyToken(ctx context.Context, tokenStr string) (*TokenInfo, error) {
	if e == nil || e.jwtManager == nil || e.blacklist == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.jwtManager.ParseAccess(tokenStr)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			e.metricInc(MetricTokenVerifyExpired)
			return nil, ErrTokenExpired
		}
		e.metricInc(MetricTokenVerifyMalformed)
		return nil, ErrTokenMalformed
	}

	revoked, err := e.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, ErrUnavailable
	}
	if revoked {
		e.metricInc(MetricTokenVerifyRevoked)
		return nil, ErrTokenRevoked
	}

	e.metricInc(MetricTokenVerifySuccess)
	return &TokenInfo{
		UserID:    claims.UID,
		Username:  claims.Username,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// CurrentUser verifies tokenStr and returns the safe profile of the
// bound user.
func (e *Engine) CurrentUser(ctx context.Context, tokenStr string) (*UserInfo, error) {
	info, err := e.VerifyToken(ctx, tokenStr)
	if err != nil {
		return nil, err
	}
	if e.credentials == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.credentials.GetByID(ctx, info.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrUnavailable
	}

	return &UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
	}, nil
}

// remainingLife returns how long a parsed token stays naturally valid,
// used to bound blacklist entry TTLs.
func remainingLife(expiresAt time.Time) time.Duration {
	return time.Until(expiresAt)
}
