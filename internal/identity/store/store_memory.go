package store

import (
	"context"
	"strings"
	"sync"

	"justicerollon/internal/identity/models"
	"justicerollon/pkg/domain"
	"justicerollon/pkg/platform/sentinel"
)

// InMemoryUserStore keeps users in memory for development and tests.
type InMemoryUserStore struct {
	mu     sync.RWMutex
	byID   map[domain.UserID]*models.User
	byName map[string]domain.UserID
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		byID:   make(map[domain.UserID]*models.User),
		byName: make(map[string]domain.UserID),
	}
}

func (s *InMemoryUserStore) CreateIfUsernameAvailable(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user.Username)
	if _, exists := s.byName[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	copied := *user
	s.byID[user.ID] = &copied
	s.byName[key] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID domain.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *InMemoryUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byName[strings.ToLower(username)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.byID[userID]
	return &copied, nil
}

func (s *InMemoryUserStore) UpdateRole(_ context.Context, userID domain.UserID, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	user.Role = role
	return nil
}
