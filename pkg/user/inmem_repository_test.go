package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(first, last, email string) User {
	return User{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Security:  UserSecurity{Password: "encoded"},
	}
}

func TestInMemRepository_CreateAndGet(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()

	u := newUser("Ann", "Lee", "ann@x.com")
	u.TaskCollections = []TaskCollection{NewDefaultTaskCollection(uuid.Nil)}

	created, err := repo.CreateUser(ctx, u)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, created.ID, created.Security.UserID)
	require.Len(t, created.TaskCollections, 1)
	assert.Equal(t, created.ID, created.TaskCollections[0].UserID)
	assert.Equal(t, "Mes tâches", created.TaskCollections[0].Name)
	assert.False(t, created.TaskCollections[0].Shared)

	got, err := repo.GetUserByEmail(ctx, "ANN@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = repo.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemRepository_EmailUniqueness(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, newUser("Ann", "Lee", "ann@x.com"))
	require.NoError(t, err)
	bob, err := repo.CreateUser(ctx, newUser("Bob", "Ray", "bob@x.com"))
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, newUser("Other", "Ann", "Ann@X.com"))
	assert.ErrorIs(t, err, ErrEmailTaken)

	bob.Email = "ann@x.com"
	_, err = repo.UpdateUser(ctx, bob)
	assert.ErrorIs(t, err, ErrEmailTaken)

	bob.Email = "robert@x.com"
	updated, err := repo.UpdateUser(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "robert@x.com", updated.Email)

	_, err = repo.GetUserByEmail(ctx, "bob@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemRepository_UpdateSecurityAndDelete(t *testing.T) {
	repo := NewInMemRepository()
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, newUser("Ann", "Lee", "ann@x.com"))
	require.NoError(t, err)

	tokenID := uuid.New()
	sec := created.Security
	sec.AccountEnabled = true
	sec.AccountValidationTokenID = &tokenID
	_, err = repo.UpdateUserSecurity(ctx, sec)
	require.NoError(t, err)

	got, err := repo.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Security.AccountEnabled)
	require.NotNil(t, got.Security.AccountValidationTokenID)
	assert.Equal(t, tokenID, *got.Security.AccountValidationTokenID)

	// returned values are detached from the store
	*got.Security.AccountValidationTokenID = uuid.Nil
	again, err := repo.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, tokenID, *again.Security.AccountValidationTokenID)

	require.NoError(t, repo.DeleteUser(ctx, created.ID))
	assert.ErrorIs(t, repo.DeleteUser(ctx, created.ID), ErrNotFound)
	_, err = repo.GetUserByEmail(ctx, "ann@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.UpdateUserSecurity(ctx, sec)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUser_Role(t *testing.T) {
	u := User{}
	assert.Equal(t, RoleUser, u.Role())
	u.Security.Admin = true
	assert.Equal(t, RoleAdmin, u.Role())
}
