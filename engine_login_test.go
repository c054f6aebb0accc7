package authgate

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoginIssuesVerifiableToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockCredentialStore()
	mailer := newCaptureMailer()
	engine := newTestEngine(t, rdb, store, mailer, testConfig())

	created := registerTestUser(t, engine, mailer, "a@x.com", "alice01", "Passw0rd!")

	token, err := engine.Login(ctx, "alice01", "Passw0rd!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	info, err := engine.VerifyToken(ctx, token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if info.UserID != created.ID || info.Username != "alice01" {
		t.Fatalf("token bound to wrong subject: %+v", info)
	}
	if info.TokenID == "" {
		t.Fatal("expected a token identifier")
	}

	user, err := engine.CurrentUser(ctx, token)
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if user.Email != "a@x.com" || !user.Active {
		t.Fatalf("unexpected profile: %+v", user)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockCredentialStore()
	mailer := newCaptureMailer()
	engine := newTestEngine(t, rdb, store, mailer, testConfig())

	registerTestUser(t, engine, mailer, "a@x.com", "alice01", "Passw0rd!")

	_, unknownErr := engine.Login(ctx, "nobody99", "Passw0rd!")
	_, wrongErr := engine.Login(ctx, "alice01", "WrongPass1!")

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("failure modes are distinguishable: %q vs %q", unknownErr, wrongErr)
	}
}

func TestLoginInactiveAccountRejected(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockCredentialStore()
	engine := newTestEngine(t, rdb, store, newCaptureMailer(), testConfig())

	// Pending record only; never activated, so it has no username and
	// no password. Login by any name must fail generically.
	if _, err := store.CreatePending(ctx, "a@x.com"); err != nil {
		t.Fatalf("CreatePending failed: %v", err)
	}

	if _, err := engine.Login(ctx, "alice01", "Passw0rd!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginThresholdBlocksUntilWindowElapses(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockCredentialStore()
	mailer := newCaptureMailer()
	cfg := testConfig()
	engine := newTestEngine(t, rdb, store, mailer, cfg)

	registerTestUser(t, engine, mailer, "a@x.com", "alice01", "Passw0rd!")

	for i := 0; i < cfg.RateLimit.MaxLoginAttempts; i++ {
		if _, err := engine.Login(ctx, "alice01", "WrongPass1!"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}

	// Budget spent: even the correct password is rejected now.
	if _, err := engine.Login(ctx, "alice01", "Passw0rd!"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited after threshold, got %v", err)
	}

	mr.FastForward(cfg.RateLimit.CooldownDuration + time.Second)

	token, err := engine.Login(ctx, "alice01", "Passw0rd!")
	if err != nil {
		t.Fatalf("Login after cooldown failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token after the window elapsed")
	}
}

func TestLoginSuccessResetsFailureCounter(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockCredentialStore()
	mailer := newCaptureMailer()
	cfg := testConfig()
	engine := newTestEngine(t, rdb, store, mailer, cfg)

	registerTestUser(t, engine, mailer, "a@x.com", "alice01", "Passw0rd!")

	for i := 0; i < cfg.RateLimit.MaxLoginAttempts-1; i++ {
		_, _ = engine.Login(ctx, "alice01", "WrongPass1!")
	}
	if _, err := engine.Login(ctx, "alice01", "Passw0rd!"); err != nil {
		t.Fatalf("Login under threshold failed: %v", err)
	}

	// The success cleared the counter; the full budget is available
	// again.
	for i := 0; i < cfg.RateLimit.MaxLoginAttempts-1; i++ {
		if _, err := engine.Login(ctx, "alice01", "WrongPass1!"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d after reset: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := engine.Login(ctx, "alice01", "Passw0rd!"); err != nil {
		t.Fatalf("Login after reset failed: %v", err)
	}
}
