package user

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// DefaultTaskCollectionName is the name of the collection every account starts with.
const DefaultTaskCollectionName = "Mes tâches"

// NormalizeEmail strips the surrounding whitespace of an address. Lookups stay
// case-insensitive in every repository.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

type User struct {
	ID              uuid.UUID        `json:"id"`
	FirstName       string           `json:"first_name"`
	LastName        string           `json:"last_name"`
	Email           string           `json:"email"`
	Security        UserSecurity     `json:"security"`
	TaskCollections []TaskCollection `json:"task_collections,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Role derives the single authority of the user from the admin flag.
func (u User) Role() Role {
	if u.Security.Admin {
		return RoleAdmin
	}
	return RoleUser
}

// UserSecurity is the credential record of a user. AccountEnabled stays false
// until the account is activated.
type UserSecurity struct {
	ID                       uuid.UUID  `json:"id"`
	UserID                   uuid.UUID  `json:"user_id"`
	Password                 string     `json:"-"`
	Admin                    bool       `json:"admin"`
	AccountEnabled           bool       `json:"account_enabled"`
	AccountValidationTokenID *uuid.UUID `json:"-"`
}

type TaskCollection struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Shared bool      `json:"shared"`
}

func NewDefaultTaskCollection(userID uuid.UUID) TaskCollection {
	return TaskCollection{
		ID:     uuid.New(),
		UserID: userID,
		Name:   DefaultTaskCollectionName,
		Shared: false,
	}
}

// Repository stores users with their security record and task collections.
// Email lookups are case-insensitive.
type Repository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	FindUsers(ctx context.Context) ([]User, error)
	// UpdateUser overwrites first name, last name and email.
	UpdateUser(ctx context.Context, user User) (User, error)
	UpdateUserSecurity(ctx context.Context, security UserSecurity) (UserSecurity, error)
	// DeleteUser removes the user, its security record and task collections.
	DeleteUser(ctx context.Context, id uuid.UUID) error
}
