package authgate

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRegisterFlowAndReplay(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockCredentialStore()
	mailer := newCaptureMailer()
	engine := newTestEngine(t, rdb, store, mailer, testConfig())

	if err := engine.SendActivationCode(ctx, "a@x.com"); err != nil {
		t.Fatalf("SendActivationCode failed: %v", err)
	}

	code := mailer.lastCode("a@x.com", PurposeActivation)
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	req := RegisterRequest{
		Email:           "a@x.com",
		Username:        "alice01",
		Password:        "Passw0rd!",
		ConfirmPassword: "Passw0rd!",
		Code:            code,
	}

	user, err := engine.Register(ctx, req)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !user.Active || user.Username != "alice01" {
		t.Fatalf("unexpected user after registration: %+v", user)
	}

	// Replaying the exact same request must surface the consumed code,
	// not a conflict or a silent success.
	if _, err := engine.Register(ctx, req); !errors.Is(err, ErrCodeAlreadyUsed) {
		t.Fatalf("expected ErrCodeAlreadyUsed on replay, got %v", err)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricRegisterSuccess] != 1 {
		t.Fatalf("expected 1 successful registration, got %d", snap.Counters[MetricRegisterSuccess])
	}
}

func TestRegisterSupersededCode(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockCredentialStore()
	mailer := newCaptureMailer()
	cfg := testConfig()
	engine := newTestEngine(t, rdb, store, mailer, cfg)

	if err := engine.SendActivationCode(ctx, "a@x.com"); err != nil {
		t.Fatalf("first SendActivationCode failed: %v", err)
	}
	oldCode := mailer.lastCode("a@x.com", PurposeActivation)

	// Step past the resend window so a second issuance is allowed.
	mr.FastForward(cfg.Codes.ResendInterval + time.Second)

	if err := engine.SendActivationCode(ctx, "a@x.com"); err != nil {
		t.Fatalf("second SendActivationCode failed: %v", err)
	}
	newCode := mailer.lastCode("a@x.com", PurposeActivation)

	req := RegisterRequest{
		Email:           "a@x.com",
		Username:        "alice01",
		Password:        "Passw0rd!",
		ConfirmPassword: "Passw0rd!",
		Code:            oldCode,
	}
	if _, err := engine.Register(ctx, req); !errors.Is(err, ErrCodeSuperseded) {
		t.Fatalf("expected ErrCodeSuperseded for the replaced code, got %v", err)
	}

	req.Code = newCode
	if _, err := engine.Register(ctx, req); err != nil {
		t.Fatalf("Register with latest code failed: %v", err)
	}
}

func TestRegisterFormatAndMismatchGates(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	engine := newTestEngine(t, rdb, newMockCredentialStore(), newCaptureMailer(), testConfig())

	cases := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{"bad email", RegisterRequest{Email: "not-an-email", Username: "alice01", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!", Code: "123456"}, ErrInvalidFormat},
		{"short username", RegisterRequest{Email: "a@x.com", Username: "ab", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!", Code: "123456"}, ErrInvalidFormat},
		{"weak password", RegisterRequest{Email: "a@x.com", Username: "alice01", Password: "password", ConfirmPassword: "password", Code: "123456"}, ErrInvalidFormat},
		{"confirm mismatch", RegisterRequest{Email: "a@x.com", Username: "alice01", Password: "Passw0rd!", ConfirmPassword: "Passw0rd?", Code: "123456"}, ErrPasswordMismatch},
		{"empty code", RegisterRequest{Email: "a@x.com", Username: "alice01", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!"}, ErrCodeMismatch},
	}

	for _, tc := range cases {
		if _, err := engine.Register(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestRegisterUsernameConflictRestoresCode(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockCredentialStore()
	mailer := newCaptureMailer()
	engine := newTestEngine(t, rdb, store, mailer, testConfig())

	registerTestUser(t, engine, mailer, "a@x.com", "alice01", "Passw0rd!")

	if err := engine.SendActivationCode(ctx, "b@x.com"); err != nil {
		t.Fatalf("SendActivationCode failed: %v", err)
	}
	code := mailer.lastCode("b@x.com", PurposeActivation)

	req := RegisterRequest{
		Email:           "b@x.com",
		Username:        "alice01",
		Password:        "Passw0rd!",
		ConfirmPassword: "Passw0rd!",
		Code:            code,
	}
	if _, err := engine.Register(ctx, req); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for taken username, got %v", err)
	}

	// The failed registration must not have burned the code.
	req.Username = "bob02"
	if _, err := engine.Register(ctx, req); err != nil {
		t.Fatalf("Register retry with free username failed: %v", err)
	}
}

func TestSendActivationCodeConflictAndThrottle(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockCredentialStore()
	mailer := newCaptureMailer()
	engine := newTestEngine(t, rdb, store, mailer, testConfig())

	registerTestUser(t, engine, mailer, "a@x.com", "alice01", "Passw0rd!")

	if err := engine.SendActivationCode(ctx, "a@x.com"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for active account, got %v", err)
	}

	if err := engine.SendActivationCode(ctx, "b@x.com"); err != nil {
		t.Fatalf("SendActivationCode failed: %v", err)
	}
	if err := engine.SendActivationCode(ctx, "b@x.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited inside resend window, got %v", err)
	}
}
