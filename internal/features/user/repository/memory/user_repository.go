package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"hashminer-backend/internal/features/user/models"
	"hashminer-backend/internal/features/user/repository"
)

// Repository is an in-memory UserRepository used by tests and local
// development. Documents are stored as deep copies so callers never share
// state with the store, mirroring the serialize-on-write behavior of the
// Redis implementation.
type Repository struct {
	mu      sync.RWMutex
	users   map[string]*models.User
	byEmail map[string]string

	// FailUpdateFor simulates a persistence failure for specific user ids.
	failUpdateFor map[string]error
}

var _ repository.UserRepository = (*Repository)(nil)

func NewUserRepository() *Repository {
	return &Repository{
		users:         make(map[string]*models.User),
		byEmail:       make(map[string]string),
		failUpdateFor: make(map[string]error),
	}
}

// FailUpdates makes Update return err for the given user id.
func (r *Repository) FailUpdates(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failUpdateFor[id] = err
}

func clone(user *models.User) *models.User {
	raw, _ := json.Marshal(user)
	var copied models.User
	_ = json.Unmarshal(raw, &copied)
	return &copied
}

func (r *Repository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.ID] = clone(user)
	if user.Email != "" {
		r.byEmail[user.Email] = user.ID
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(user), nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(user), nil
}

func (r *Repository) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err, ok := r.failUpdateFor[user.ID]; ok {
		return err
	}
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	r.users[user.ID] = clone(user)
	return nil
}

func (r *Repository) List(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*models.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, clone(user))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}
