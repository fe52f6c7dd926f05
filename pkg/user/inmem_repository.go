package user

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type InMemRepository struct {
	users   map[uuid.UUID]User
	byEmail map[string]uuid.UUID
	mu      sync.Mutex
}

func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		users:   make(map[uuid.UUID]User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func emailKey(email string) string {
	return strings.ToLower(email)
}

func (r *InMemRepository) CreateUser(ctx context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[emailKey(user.Email)]; taken {
		return User{}, ErrEmailTaken
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Security.ID == uuid.Nil {
		user.Security.ID = uuid.New()
	}
	user.Security.UserID = user.ID
	for i := range user.TaskCollections {
		if user.TaskCollections[i].ID == uuid.Nil {
			user.TaskCollections[i].ID = uuid.New()
		}
		user.TaskCollections[i].UserID = user.ID
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	r.users[user.ID] = user
	r.byEmail[emailKey(user.Email)] = user.ID
	slog.Debug("User created", "id", user.ID)
	return copyUser(user), nil
}

func (r *InMemRepository) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return copyUser(user), nil
}

func (r *InMemRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return copyUser(r.users[id]), nil
}

func (r *InMemRepository) FindUsers(ctx context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *InMemRepository) UpdateUser(ctx context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return User{}, ErrNotFound
	}
	if owner, taken := r.byEmail[emailKey(user.Email)]; taken && owner != user.ID {
		return User{}, ErrEmailTaken
	}

	delete(r.byEmail, emailKey(existing.Email))
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.Email = user.Email
	existing.UpdatedAt = time.Now().UTC()
	r.users[existing.ID] = existing
	r.byEmail[emailKey(existing.Email)] = existing.ID
	return copyUser(existing), nil
}

func (r *InMemRepository) UpdateUserSecurity(ctx context.Context, security UserSecurity) (UserSecurity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[security.UserID]
	if !ok || user.Security.ID != security.ID {
		return UserSecurity{}, ErrNotFound
	}
	user.Security = security
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = user
	return security, nil
}

func (r *InMemRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byEmail, emailKey(user.Email))
	delete(r.users, id)
	return nil
}

// copyUser detaches slices and pointers from the stored value.
func copyUser(u User) User {
	u.TaskCollections = append([]TaskCollection(nil), u.TaskCollections...)
	if u.Security.AccountValidationTokenID != nil {
		id := *u.Security.AccountValidationTokenID
		u.Security.AccountValidationTokenID = &id
	}
	return u
}
