package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"
)

func newHSManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()

	m, err := NewManager(Config{
		AccessTTL:     ttl,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("unit-test-secret-unit-test-secret"),
		Issuer:        "authgate-test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestHS256RoundTrip(t *testing.T) {
	m := newHSManager(t, time.Hour)

	token, err := m.CreateAccess("u1", "alice", "jti-1")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if claims.UID != "u1" || claims.Username != "alice" || claims.ID != "jti-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Issuer != "authgate-test" {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
}

func TestEd25519RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	m, err := NewManager(Config{
		AccessTTL:     time.Hour,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, err := m.CreateAccess("u1", "alice", "jti-1")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if claims.UID != "u1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseExpiredToken(t *testing.T) {
	m := newHSManager(t, time.Millisecond)

	token, err := m.CreateAccess("u1", "alice", "jti-1")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := m.ParseAccess(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	m := newHSManager(t, time.Hour)

	other, err := NewManager(Config{
		AccessTTL:     time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("a-completely-different-secret-key"),
		Issuer:        "authgate-test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, err := other.CreateAccess("u1", "alice", "jti-1")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	if _, err := m.ParseAccess(token); err == nil || errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected signature rejection, got %v", err)
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	m := newHSManager(t, time.Hour)

	token, err := m.CreateAccess("u1", "alice", "jti-1")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	if _, err := m.ParseAccess(tampered); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestParseRequiresTokenID(t *testing.T) {
	m := newHSManager(t, time.Hour)

	token, err := m.CreateAccess("u1", "alice", "")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	if _, err := m.ParseAccess(token); err == nil {
		t.Fatal("expected token without jti to be rejected")
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero ttl", Config{SigningMethod: MethodHS256, PrivateKey: []byte("k")}},
		{"hs256 without key", Config{AccessTTL: time.Hour, SigningMethod: MethodHS256}},
		{"unknown method", Config{AccessTTL: time.Hour, SigningMethod: "none", PrivateKey: []byte("k")}},
		{"excess leeway", Config{AccessTTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("k"), Leeway: time.Hour}},
	}

	for _, tc := range cases {
		if _, err := NewManager(tc.cfg); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}
