package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu      sync.Mutex
	byID    map[string]User
	byPhone map[string]string
	byEmail map[string]string
}

// NewMemoryRepository builds an in-memory user store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:    make(map[string]User),
		byPhone: make(map[string]string),
		byEmail: make(map[string]string),
	}
}

func (r *memoryRepository) FindByPhone(_ context.Context, phone string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byPhone[phone]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) FindByAuthKey(_ context.Context, authKey string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if authKey == "" {
		return User{}, ErrNotFound
	}
	for _, user := range r.byID {
		if user.AuthKey == authKey {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memoryRepository) CreateEmailUser(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return ErrDuplicate
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *memoryRepository) EnsureAuthKeyByPhone(_ context.Context, phone, candidate string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byPhone[phone]; ok {
		user := r.byID[id]
		if user.AuthKey == "" {
			user.AuthKey = candidate
			r.byID[id] = user
		}
		return user.AuthKey, nil
	}
	user := User{ID: uuid.NewString(), Phone: phone, AuthKey: candidate, CreatedAt: time.Now().UTC()}
	r.byID[user.ID] = user
	r.byPhone[phone] = user.ID
	return candidate, nil
}

func (r *memoryRepository) EnsureAuthKeyByEmail(_ context.Context, email, candidate string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byEmail[email]; ok {
		user := r.byID[id]
		if user.AuthKey == "" {
			user.AuthKey = candidate
			r.byID[id] = user
		}
		return user.AuthKey, nil
	}
	user := User{ID: uuid.NewString(), Email: email, AuthKey: candidate, CreatedAt: time.Now().UTC()}
	r.byID[user.ID] = user
	r.byEmail[email] = user.ID
	return candidate, nil
}
