// Package httpapi holds the JSON request and response payloads of the
// HTTP surface. Handlers and clients share these types; nothing here
// has behavior.
package httpapi

import "time"

// SendCodeRequest starts registration or password recovery for an
// email address.
type SendCodeRequest struct {
	Email string `json:"email"`
}

// RegisterRequest completes registration with the emailed code.
type RegisterRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Code            string `json:"code"`
}

// LoginRequest exchanges credentials for a session token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Token string `json:"token"`
}

// ResetRequest completes a password reset with the emailed code.
type ResetRequest struct {
	Email           string `json:"email"`
	Code            string `json:"code"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// PublicUser is the safe user profile returned on protected reads.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Active    bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserResponse wraps a profile payload.
type UserResponse struct {
	User PublicUser `json:"user"`
}

// OKResponse is the body of bodiless-success endpoints.
type OKResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse is the uniform error body. Error is a stable
// snake_case kind; clients branch on it, not on the message.
type ErrorResponse struct {
	Error string `json:"error"`
}
