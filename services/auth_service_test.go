package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"order-desk/models"
	"order-desk/utils"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.auth.Register(ctx, models.RegisterRequest{Name: " A ", Email: "A@X.com", Password: "secret1"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "A", user.Name)
	assert.Equal(t, "a@x.com", user.Email)
	assert.False(t, user.IsAdmin)
	assert.NotEqual(t, "secret1", user.Password)
	assert.Equal(t, []string{"a@x.com"}, f.notifier.registered)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.auth.Register(ctx, models.RegisterRequest{Name: "A", Email: "a@x.com", Password: "secret1"}, nil)
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, models.RegisterRequest{Name: "B", Email: "a@x.com", Password: "other12"}, nil)
	requireKind(t, err, ErrConflict, "User already exists")

	_, err = f.auth.Register(ctx, models.RegisterRequest{Name: "C", Email: " A@x.COM", Password: "other12"}, nil)
	requireKind(t, err, ErrConflict, "User already exists")

	users, err := f.store.Users().FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRegisterAdminFlag(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous caller is rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.auth.Register(ctx, models.RegisterRequest{Name: "A", Email: "a@x.com", Password: "secret1", IsAdmin: true}, nil)
		requireKind(t, err, ErrForbidden, "")

		users, err := f.store.Users().FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("non-admin caller is rejected", func(t *testing.T) {
		f := newFixture(t)
		caller := f.register(t, "U", "u@x.com", false)
		_, err := f.auth.Register(ctx, models.RegisterRequest{Name: "A", Email: "a@x.com", Password: "secret1", IsAdmin: true}, &caller)
		requireKind(t, err, ErrForbidden, "")
	})

	t.Run("admin caller may create admins", func(t *testing.T) {
		f := newFixture(t)
		caller := f.register(t, "Root", "root@x.com", true)
		user, err := f.auth.Register(ctx, models.RegisterRequest{Name: "A", Email: "a@x.com", Password: "secret1", IsAdmin: true}, &caller)
		require.NoError(t, err)
		assert.True(t, user.IsAdmin)
	})

	t.Run("open admin signup", func(t *testing.T) {
		f := newFixture(t, WithAdminSignup(true))
		user, err := f.auth.Register(ctx, models.RegisterRequest{Name: "A", Email: "a@x.com", Password: "secret1", IsAdmin: true}, nil)
		require.NoError(t, err)
		assert.True(t, user.IsAdmin)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	registered, err := f.auth.Register(ctx, models.RegisterRequest{Name: "A", Email: "a@x.com", Password: "secret1"}, nil)
	require.NoError(t, err)

	resp, err := f.auth.Login(ctx, models.LoginRequest{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Login successful", resp.Message)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, registered.ID, resp.User.ID)

	ident, err := f.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, ident.UserID)
	assert.False(t, ident.IsAdmin)
}

func TestLoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "A", "a@x.com", false)

	resp, err := f.auth.Login(ctx, models.LoginRequest{Email: "a@x.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, resp)

	resp, err = f.auth.Login(ctx, models.LoginRequest{Email: "nobody@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, resp)
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Name: "Old", Email: "Old@X.com", Password: string(legacy)}
	require.NoError(t, f.store.Users().Create(ctx, user))

	resp, err := f.auth.Login(ctx, models.LoginRequest{Email: "old@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)

	stored, err := f.store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, utils.IsLegacyHash(stored.Password))

	_, err = f.auth.Login(ctx, models.LoginRequest{Email: "OLD@x.com", Password: "secret1"})
	require.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	token, err := f.tokens.Issue("user-1", true)
	require.NoError(t, err)

	ident, err := f.auth.Authenticate(ctx, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.UserID)
	assert.True(t, ident.IsAdmin)

	other := utils.NewTokenManager("another-secret", time.Hour)
	foreign, err := other.Issue("user-1", false)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "Authorization header missing"},
		{"missing token", "Bearer", "Token missing"},
		{"wrong scheme", "Basic " + token, "Invalid authorization header format"},
		{"extra segments", "Bearer " + token + " extra", "Invalid authorization header format"},
		{"garbage token", "Bearer not.a.token", "Invalid token"},
		{"foreign signature", "Bearer " + foreign, "Invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Authenticate(ctx, tt.header)
			requireKind(t, err, ErrUnauthorized, tt.message)
		})
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	token, err := f.tokens.Issue("user-1", false)
	require.NoError(t, err)
	ident, err := f.auth.Authenticate(ctx, "Bearer "+token)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, ident))
	ttl, ok := f.denylist.revoked[ident.TokenID]
	require.True(t, ok)
	assert.Greater(t, ttl, time.Duration(0))

	_, err = f.auth.Authenticate(ctx, "Bearer "+token)
	requireKind(t, err, ErrUnauthorized, "Token has been revoked")
}

func TestAuthenticateDenylistUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.denylist.err = errors.New("connection refused")

	token, err := f.tokens.Issue("user-1", false)
	require.NoError(t, err)

	ident, err := f.auth.Authenticate(ctx, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.UserID)

	assert.Error(t, f.auth.Logout(ctx, ident))
}

func TestLogoutWithoutDenylist(t *testing.T) {
	f := newFixture(t, WithDenylist(nil))
	assert.NoError(t, f.auth.Logout(context.Background(), models.Identity{UserID: "u", TokenID: "jti"}))
}
