// Package memstore provides an in-memory CredentialStore. It is the
// backing store for tests and single-process development setups; data
// does not survive the process.
package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/halcyondev/authgate"
)

// Store is a mutex-guarded in-memory implementation of
// [authgate.CredentialStore]. The zero value is not usable; construct
// with [New].
type Store struct {
	mu      sync.RWMutex
	byEmail map[string]*authgate.User
	byName  map[string]string // username -> email
	byID    map[string]string // id -> email
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byEmail: make(map[string]*authgate.User),
		byName:  make(map[string]string),
		byID:    make(map[string]string),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CreatePending inserts a pending user for email, or returns the
// existing pending record. An active account on the same email fails
// with [authgate.ErrConflict].
func (s *Store) CreatePending(_ context.Context, email string) (authgate.User, error) {
	key := normalize(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byEmail[key]; ok {
		if existing.Active {
			return authgate.User{}, authgate.ErrConflict
		}
		return *existing, nil
	}

	user := &authgate.User{
		ID:        uuid.NewString(),
		Email:     email,
		Active:    false,
		CreatedAt: time.Now().UTC(),
	}
	s.byEmail[key] = user
	s.byID[user.ID] = key
	return *user, nil
}

// Activate promotes the pending user for email to an active account.
func (s *Store) Activate(_ context.Context, email, username, passwordHash string) (authgate.User, error) {
	emailKey := normalize(email)
	nameKey := normalize(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byEmail[emailKey]
	if !ok {
		return authgate.User{}, authgate.ErrNotFound
	}
	if user.Active {
		return authgate.User{}, authgate.ErrConflict
	}
	if _, taken := s.byName[nameKey]; taken {
		return authgate.User{}, authgate.ErrConflict
	}

	user.Username = username
	user.PasswordHash = passwordHash
	user.Active = true
	s.byName[nameKey] = emailKey
	return *user, nil
}

func (s *Store) GetByUsername(_ context.Context, username string) (authgate.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emailKey, ok := s.byName[normalize(username)]
	if !ok {
		return authgate.User{}, authgate.ErrNotFound
	}
	return *s.byEmail[emailKey], nil
}

func (s *Store) GetByEmail(_ context.Context, email string) (authgate.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byEmail[normalize(email)]
	if !ok {
		return authgate.User{}, authgate.ErrNotFound
	}
	return *user, nil
}

func (s *Store) GetByID(_ context.Context, id string) (authgate.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emailKey, ok := s.byID[id]
	if !ok {
		return authgate.User{}, authgate.ErrNotFound
	}
	return *s.byEmail[emailKey], nil
}

func (s *Store) UpdatePassword(_ context.Context, userID, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	emailKey, ok := s.byID[userID]
	if !ok {
		return authgate.ErrNotFound
	}
	s.byEmail[emailKey].PasswordHash = newHash
	return nil
}

// Len reports the number of user records, pending ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEmail)
}
