package authgate

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

// captureMailer records the last code per (email, purpose) instead of
// sending anything. Fail makes every send error to exercise the
// dispatch rollback path.
type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
	sends int
	fail  bool
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{codes: make(map[string]string)}
}

func (m *captureMailer) SendCode(_ context.Context, email string, purpose CodePurpose, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sends++
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.codes[purpose.String()+":"+email] = code
	return nil
}

func (m *captureMailer) lastCode(email string, purpose CodePurpose) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[purpose.String()+":"+email]
}

func (m *captureMailer) setFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

// mockCredentialStore is a map-backed CredentialStore for engine
// tests.
type mockCredentialStore struct {
	mu      sync.Mutex
	byEmail map[string]*User
	byName  map[string]string
	byID    map[string]string
	nextID  int

	failUpdate bool
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{
		byEmail: make(map[string]*User),
		byName:  make(map[string]string),
		byID:    make(map[string]string),
	}
}

func (m *mockCredentialStore) CreatePending(_ context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byEmail[email]; ok {
		if existing.Active {
			return User{}, ErrConflict
		}
		return *existing, nil
	}

	m.nextID++
	user := &User{
		ID:        "u" + strconv.Itoa(m.nextID),
		Email:     email,
		CreatedAt: time.Now(),
	}
	m.byEmail[email] = user
	m.byID[user.ID] = email
	return *user, nil
}

func (m *mockCredentialStore) Activate(_ context.Context, email, username, passwordHash string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	if user.Active {
		return User{}, ErrConflict
	}
	if _, taken := m.byName[username]; taken {
		return User{}, ErrConflict
	}

	user.Username = username
	user.PasswordHash = passwordHash
	user.Active = true
	m.byName[username] = email
	return *user, nil
}

func (m *mockCredentialStore) GetByUsername(_ context.Context, username string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email, ok := m.byName[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return *m.byEmail[email], nil
}

func (m *mockCredentialStore) GetByEmail(_ context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return *user, nil
}

func (m *mockCredentialStore) GetByID(_ context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email, ok := m.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return *m.byEmail[email], nil
}

func (m *mockCredentialStore) UpdatePassword(_ context.Context, userID, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failUpdate {
		return errors.New("store write failed")
	}
	email, ok := m.byID[userID]
	if !ok {
		return ErrNotFound
	}
	m.byEmail[email].PasswordHash = newHash
	return nil
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.SigningMethod = "hs256"
	cfg.JWT.PrivateKey = []byte("test-secret-test-secret-test-secret!")
	cfg.JWT.PublicKey = cfg.JWT.PrivateKey
	cfg.Password = PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	return cfg
}

func newTestEngine(t *testing.T, rdb *redis.Client, store CredentialStore, mailer Mailer, cfg Config) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(store).
		WithMailer(mailer).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

// registerTestUser walks a full send-code + register flow and returns
// the created profile.
func registerTestUser(t *testing.T, engine *Engine, mailer *captureMailer, email, username, passwd string) *UserInfo {
	t.Helper()

	ctx := context.Background()
	if err := engine.SendActivationCode(ctx, email); err != nil {
		t.Fatalf("SendActivationCode failed: %v", err)
	}

	user, err := engine.Register(ctx, RegisterRequest{
		Email:           email,
		Username:        username,
		Password:        passwd,
		ConfirmPassword: passwd,
		Code:            mailer.lastCode(email, PurposeActivation),
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return user
}
