package authgate

import "errors"

var (
	// ErrInvalidFormat is returned when client input fails a boundary
	// validation rule. Safe to retry after correcting the input.
	ErrInvalidFormat = errors.New("invalid input format")
	// ErrConflict is returned when a username or email is already taken.
	// Terminal for that input.
	ErrConflict = errors.New("identity already exists")
	// ErrNotFound is returned when no matching account exists for an
	// operation that discloses existence (forgot-password send-code).
	ErrNotFound = errors.New("account not found")
	// ErrRateLimited is returned when a counter threshold is exceeded.
	// Transient; retry after the disclosed cooldown.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidCredentials is returned for both unknown usernames and
	// wrong passwords. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrCodeExpired is returned when a verification code is missing or
	// past its expiry. A fresh code must be issued.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrCodeAlreadyUsed is returned when a verification code has been
	// consumed before. A code is accepted at most once.
	ErrCodeAlreadyUsed = errors.New("verification code already used")
	// ErrCodeSuperseded is returned when a submitted code matches one
	// that was invalidated by a newer issuance for the same email and
	// purpose.
	ErrCodeSuperseded = errors.New("verification code superseded")
	// ErrCodeMismatch is returned when the submitted code differs from
	// the active one. Comparison is constant time.
	ErrCodeMismatch = errors.New("verification code mismatch")
	// ErrCodeAttempts is returned when the failed-validation budget for
	// one code is exhausted; the code is invalidated.
	ErrCodeAttempts = errors.New("verification code attempts exceeded")
	// ErrPasswordMismatch is returned when password and confirmation
	// differ.
	ErrPasswordMismatch = errors.New("password confirmation mismatch")

	// ErrTokenMalformed is returned when a token fails structural or
	// signature checks.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrTokenExpired is returned when a token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked is returned when a token's identifier is present
	// in the blacklist.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrUnavailable is returned when a backing store cannot serve the
	// request. Distinct from every user-caused failure; never swallowed.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrDispatchFailed is returned when out-of-band code delivery fails.
	// The issuance is rolled back so a retry path exists.
	ErrDispatchFailed = errors.New("code dispatch failed")
	// ErrEngineNotReady is returned when the engine is used before all
	// required dependencies were supplied to the builder.
	ErrEngineNotReady = errors.New("engine not initialized")
)
