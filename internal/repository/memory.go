package repository

import (
	"context"
	"sync"
	"time"

	"github.com/authcore/authcore/internal/model"
)

// MemoryUserStore is an in-process UserStore.
type MemoryUserStore struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*model.User
	byEmail map[string]int64
	now     func() time.Time
}

var _ UserStore = (*MemoryUserStore)(nil)

// NewMemoryUserStore creates an empty in-memory store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		nextID:  1,
		byID:    make(map[int64]*model.User),
		byEmail: make(map[string]int64),
		now:     time.Now,
	}
}

// CreateUser stores a copy of user and assigns its ID. The uniqueness check
// and insert happen under one lock, so concurrent creates with the same
// email yield exactly one success.
func (s *MemoryUserStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return ErrEmailExists
	}

	user.ID = s.nextID
	s.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}

	stored := *user
	s.byID[stored.ID] = &stored
	s.byEmail[stored.Email] = stored.ID
	return nil
}

// GetUserByEmail returns a copy of the user with the given email.
func (s *MemoryUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	user := *s.byID[id]
	return &user, nil
}

// GetUserByID returns a copy of the user with the given ID.
func (s *MemoryUserStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	user := *stored
	return &user, nil
}

// Len returns the number of stored users.
func (s *MemoryUserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
