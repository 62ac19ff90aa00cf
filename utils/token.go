package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"order-desk/models"
)

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrMalformedClaims = errors.New("invalid token structure")
)

// claimID decodes an identifier written either as a JSON string or a number.
// Any other shape decodes to "" so the claims are rejected as malformed.
type claimID string

func (c *claimID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = claimID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*c = claimID(n.String())
		return nil
	}
	*c = ""
	return nil
}

// tokenClaims covers every identity field layout issued over time: userId is
// canonical, _id / id / user_id and role are accepted when verifying.
type tokenClaims struct {
	UserID      claimID `json:"userId,omitempty"`
	DocumentID  claimID `json:"_id,omitempty"`
	PlainID     claimID `json:"id,omitempty"`
	SnakeUserID claimID `json:"user_id,omitempty"`
	IsAdmin     bool    `json:"isAdmin"`
	Role        string  `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (c *tokenClaims) identity() (models.Identity, error) {
	var id claimID
	for _, candidate := range []claimID{c.UserID, c.DocumentID, c.PlainID, c.SnakeUserID} {
		if candidate != "" {
			id = candidate
			break
		}
	}
	if id == "" {
		return models.Identity{}, ErrMalformedClaims
	}

	ident := models.Identity{
		UserID:  string(id),
		IsAdmin: c.IsAdmin || c.Role == "admin",
		TokenID: c.ID,
	}
	if c.ExpiresAt != nil {
		ident.ExpiresAt = c.ExpiresAt.Time
	}
	return ident, nil
}

type TokenManager struct {
	secret   []byte
	validity time.Duration
}

func NewTokenManager(secret string, validity time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), validity: validity}
}

func (m *TokenManager) Issue(userID string, isAdmin bool) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID:  claimID(userID),
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.validity)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify fails with ErrInvalidToken for bad signatures, expiry or malformed
// tokens, and with ErrMalformedClaims when no user identifier is present.
func (m *TokenManager) Verify(token string) (models.Identity, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return models.Identity{}, ErrInvalidToken
	}

	return claims.identity()
}
