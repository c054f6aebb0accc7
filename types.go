package authgate

import (
	"context"
	"time"
)

// CodePurpose distinguishes the two one-time-code flows. Codes issued for
// one purpose never validate for the other.
type CodePurpose uint8

const (
	// PurposeActivation codes prove control of an email address during
	// registration.
	PurposeActivation CodePurpose = iota
	// PurposePasswordReset codes authorize a password reset for an
	// already activated account.
	PurposePasswordReset
)

// String returns the stable wire name of the purpose.
func (p CodePurpose) String() string {
	switch p {
	case PurposeActivation:
		return "activation"
	case PurposePasswordReset:
		return "password_reset"
	default:
		return "unknown"
	}
}

// User is the account record owned by the CredentialStore. A user is
// created pending (email only) by a send-code request and becomes active
// once registration consumes a valid activation code.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}

// CredentialStore persists user identity, password hashes, and activation
// state. It is the only component that owns User records. Implementations
// must enforce email and username uniqueness atomically: concurrent
// creation attempts for the same identity produce exactly one winner and
// [ErrConflict] for the rest.
//
// Implementations map their internal failures to the package error
// taxonomy: ErrConflict, ErrNotFound, and ErrUnavailable for storage
// faults.
type CredentialStore interface {
	// CreatePending inserts a pending (inactive, email-only) user, or
	// returns the existing record when a pending one is already present.
	// Fails with ErrConflict when the email belongs to an active account.
	CreatePending(ctx context.Context, email string) (User, error)

	// Activate promotes the pending user for email to an active account
	// with the given username and password hash. Fails with ErrNotFound
	// when no pending user exists and ErrConflict when the username is
	// taken.
	Activate(ctx context.Context, email, username, passwordHash string) (User, error)

	GetByUsername(ctx context.Context, username string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)

	// UpdatePassword overwrites the stored hash. It must not touch any
	// issued token: revocation is an explicit blacklist action, never a
	// side effect of a password change.
	UpdatePassword(ctx context.Context, userID, newHash string) error
}

// Mailer delivers one-time codes out of band. Implementations must bound
// delivery time; the engine treats any returned error as a dispatch
// failure and rolls back the issuance.
type Mailer interface {
	SendCode(ctx context.Context, email string, purpose CodePurpose, code string, ttl time.Duration) error
}

// TokenInfo is returned by [Engine.VerifyToken] after signature, expiry,
// and blacklist checks all pass.
type TokenInfo struct {
	UserID    string
	Username  string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// UserInfo is the safe subset of a user record exposed on protected
// reads. It never carries hashes or codes.
type UserInfo struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Active    bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// RegisterRequest is the input for [Engine.Register].
type RegisterRequest struct {
	Email           string
	Username        string
	Password        string
	ConfirmPassword string
	Code            string
}

// ResetRequest is the input for [Engine.ConfirmPasswordReset].
type ResetRequest struct {
	Email           string
	Code            string
	NewPassword     string
	ConfirmPassword string
}
