package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-desk/models"
	"order-desk/utils"
)

func TestListUsersRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.register(t, "A", "a@x.com", false)
	admin := f.register(t, "Root", "root@x.com", true)

	_, err := f.users.ListUsers(ctx, user)
	requireKind(t, err, ErrForbidden, "Access denied")

	users, err := f.users.ListUsers(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "A", "a@x.com", false)
	b := f.register(t, "B", "b@x.com", false)
	admin := f.register(t, "Root", "root@x.com", true)

	got, err := f.users.GetUser(ctx, a.UserID, a)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)

	_, err = f.users.GetUser(ctx, a.UserID, b)
	requireKind(t, err, ErrForbidden, "Unauthorized action")

	_, err = f.users.GetUser(ctx, a.UserID, admin)
	require.NoError(t, err)

	_, err = f.users.GetUser(ctx, "missing", admin)
	requireKind(t, err, ErrNotFound, "User not found")
}

func TestUpdateUserSelf(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "A", "a@x.com", false)

	updated, err := f.users.UpdateUser(ctx, a.UserID, models.UpdateUserRequest{
		Name:     ptr("Alice"),
		Email:    ptr("Alice@X.com"),
		Password: ptr("new-secret"),
		IsAdmin:  ptr(true),
	}, a)
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "alice@x.com", updated.Email)
	assert.False(t, updated.IsAdmin, "non-admin cannot grant itself admin")

	ok, err := utils.VerifyPassword(updated.Password, "new-secret")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateUserPolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "A", "a@x.com", false)
	b := f.register(t, "B", "b@x.com", false)
	admin := f.register(t, "Root", "root@x.com", true)

	_, err := f.users.UpdateUser(ctx, a.UserID, models.UpdateUserRequest{Name: ptr("Mallory")}, b)
	requireKind(t, err, ErrForbidden, "Unauthorized action")

	_, err = f.users.UpdateUser(ctx, "missing", models.UpdateUserRequest{Name: ptr("X")}, admin)
	requireKind(t, err, ErrNotFound, "User not found")

	_, err = f.users.UpdateUser(ctx, a.UserID, models.UpdateUserRequest{Email: ptr("b@x.com")}, a)
	requireKind(t, err, ErrConflict, "Email already in use")

	promoted, err := f.users.UpdateUser(ctx, a.UserID, models.UpdateUserRequest{IsAdmin: ptr(true)}, admin)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)
	assert.Equal(t, "A", promoted.Name)
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "A", "a@x.com", false)
	admin := f.register(t, "Root", "root@x.com", true)

	err := f.users.DeleteUser(ctx, admin.UserID, a)
	requireKind(t, err, ErrForbidden, "Access denied")

	require.NoError(t, f.users.DeleteUser(ctx, a.UserID, admin))

	err = f.users.DeleteUser(ctx, a.UserID, admin)
	requireKind(t, err, ErrNotFound, "User not found")
}

func TestCreateAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, created, err := f.users.CreateAdmin(ctx, "Root", "Root@X.com", "secret1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, user.IsAdmin)
	assert.Equal(t, "root@x.com", user.Email)

	existing := f.register(t, "A", "a@x.com", false)
	promoted, created, err := f.users.CreateAdmin(ctx, "", "a@x.com", "changed1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.UserID, promoted.ID)
	assert.True(t, promoted.IsAdmin)
	assert.Equal(t, "A", promoted.Name)

	resp, err := f.auth.Login(ctx, models.LoginRequest{Email: "a@x.com", Password: "changed1"})
	require.NoError(t, err)
	assert.True(t, resp.User.IsAdmin)
}
