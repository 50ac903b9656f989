// Package memory provides a process-local UserStore for tests and local runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hongminglow/hermes-be/internal/models"
	"github.com/hongminglow/hermes-be/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

// Store keeps users in a map keyed by exact email.
type Store struct {
	mu    sync.RWMutex
	users map[string]models.User
	now   func() time.Time
}

// NewUserStore returns an empty store.
func NewUserStore() *Store {
	return &Store{
		users: make(map[string]models.User),
		now:   time.Now,
	}
}

// CreateUser inserts user unless its email is already taken.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Email]; exists {
		return models.User{}, storage.ErrAlreadyExists
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	s.users[user.Email] = user
	return user, nil
}

// FindByEmail fetches a user by exact email.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

// Len reports how many users are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
