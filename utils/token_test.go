package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signRaw(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("super-secret", time.Hour)

	for _, admin := range []bool{false, true} {
		tok, err := m.Issue("665f1c2e9b1d4a0012345678", admin)
		require.NoError(t, err)

		ident, err := m.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, "665f1c2e9b1d4a0012345678", ident.UserID)
		assert.Equal(t, admin, ident.IsAdmin)
		assert.NotEmpty(t, ident.TokenID)
		assert.WithinDuration(t, time.Now().Add(time.Hour), ident.ExpiresAt, 5*time.Second)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("secret", -time.Second)
	tok, err := m.Issue("u1", false)
	require.NoError(t, err)

	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenManager("right-secret", time.Hour).Issue("u2", false)
	require.NoError(t, err)

	_, err = NewTokenManager("wrong-secret", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager("k", time.Hour).Verify("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_MissingExpiry(t *testing.T) {
	t.Parallel()

	tok := signRaw(t, "k", jwt.MapClaims{"userId": "u1"})
	_, err := NewTokenManager("k", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_LegacyIdentifierFields(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Unix()
	cases := []struct {
		name      string
		claims    jwt.MapClaims
		wantID    string
		wantAdmin bool
	}{
		{"userId", jwt.MapClaims{"userId": "a1", "isAdmin": true, "exp": exp}, "a1", true},
		{"_id", jwt.MapClaims{"_id": "b2", "exp": exp}, "b2", false},
		{"id", jwt.MapClaims{"id": "c3", "exp": exp}, "c3", false},
		{"numeric user_id with role", jwt.MapClaims{"user_id": 42, "role": "admin", "exp": exp}, "42", true},
		{"userId wins over _id", jwt.MapClaims{"userId": "first", "_id": "second", "exp": exp}, "first", false},
	}

	m := NewTokenManager("k", time.Hour)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ident, err := m.Verify(signRaw(t, "k", tc.claims))
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, ident.UserID)
			assert.Equal(t, tc.wantAdmin, ident.IsAdmin)
		})
	}
}

func TestVerify_NoIdentifier(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Unix()
	m := NewTokenManager("k", time.Hour)

	_, err := m.Verify(signRaw(t, "k", jwt.MapClaims{"isAdmin": true, "exp": exp}))
	assert.ErrorIs(t, err, ErrMalformedClaims)

	_, err = m.Verify(signRaw(t, "k", jwt.MapClaims{"_id": map[string]any{"$oid": "x"}, "exp": exp}))
	assert.ErrorIs(t, err, ErrMalformedClaims)
}
