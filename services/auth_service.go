package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"order-desk/logger"
	"order-desk/metrics"
	"order-desk/models"
	"order-desk/repositories"
	"order-desk/utils"
)

type AuthService struct {
	userRepo         repositories.UserRepository
	tokens           *utils.TokenManager
	denylist         TokenDenylist
	notifier         Notifier
	allowAdminSignup bool
}

type AuthOption func(*AuthService)

// WithDenylist enables token revocation; without it Logout is a no-op.
func WithDenylist(d TokenDenylist) AuthOption {
	return func(s *AuthService) { s.denylist = d }
}

func WithNotifier(n Notifier) AuthOption {
	return func(s *AuthService) { s.notifier = n }
}

// WithAdminSignup lets anyone register with isAdmin set.
func WithAdminSignup(allow bool) AuthOption {
	return func(s *AuthService) { s.allowAdminSignup = allow }
}

func NewAuthService(userRepo repositories.UserRepository, tokens *utils.TokenManager, opts ...AuthOption) *AuthService {
	s := &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		notifier: NopNotifier{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a non-admin user unless isAdmin is requested by an admin
// caller (or admin signup is enabled).
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, caller *models.Identity) (*models.User, error) {
	if req.IsAdmin && !s.allowAdminSignup && (caller == nil || !caller.IsAdmin) {
		return nil, reject(ErrForbidden, "Only an admin can create admin accounts")
	}

	email := normalizeEmail(req.Email)
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, reject(ErrConflict, "User already exists")
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: hashedPassword,
		IsAdmin:  req.IsAdmin,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, reject(ErrConflict, "User already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.AuthEvents.WithLabelValues("register").Inc()
	s.notifier.UserRegistered(ctx, *user)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			metrics.AuthEvents.WithLabelValues("login_failed").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	valid, err := utils.VerifyPassword(user.Password, req.Password)
	if err != nil {
		logger.WithCtx(ctx).Warn("stored password hash could not be verified", "user_id", user.ID, "error", err)
	}
	if err != nil || !valid {
		metrics.AuthEvents.WithLabelValues("login_failed").Inc()
		return nil, ErrInvalidCredentials
	}

	if utils.IsLegacyHash(user.Password) {
		s.upgradeHash(ctx, user, req.Password)
	}

	token, err := s.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.AuthEvents.WithLabelValues("login").Inc()
	return &models.LoginResponse{
		Message: "Login successful",
		Token:   token,
		User:    *user,
	}, nil
}

func (s *AuthService) upgradeHash(ctx context.Context, user *models.User, password string) {
	hashed, err := utils.HashPassword(password)
	if err == nil {
		user.Password = hashed
		err = s.userRepo.Update(ctx, user)
	}
	if err != nil {
		logger.WithCtx(ctx).Warn("failed to upgrade legacy password hash", "user_id", user.ID, "error", err)
	}
}

// Authenticate resolves the caller from an Authorization header value.
func (s *AuthService) Authenticate(ctx context.Context, authHeader string) (models.Identity, error) {
	if strings.TrimSpace(authHeader) == "" {
		return models.Identity{}, reject(ErrUnauthorized, "Authorization header missing")
	}

	parts := strings.Fields(authHeader)
	if len(parts) < 2 {
		return models.Identity{}, reject(ErrUnauthorized, "Token missing")
	}
	if len(parts) > 2 || !strings.EqualFold(parts[0], "Bearer") {
		return models.Identity{}, reject(ErrUnauthorized, "Invalid authorization header format")
	}

	ident, err := s.tokens.Verify(parts[1])
	if err != nil {
		if errors.Is(err, utils.ErrMalformedClaims) {
			return models.Identity{}, reject(ErrUnauthorized, "Invalid token structure")
		}
		return models.Identity{}, reject(ErrUnauthorized, "Invalid token")
	}

	if s.denylist != nil && ident.TokenID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, ident.TokenID)
		if err != nil {
			logger.WithCtx(ctx).Warn("token denylist unavailable", "error", err)
		} else if revoked {
			return models.Identity{}, reject(ErrUnauthorized, "Token has been revoked")
		}
	}

	return ident, nil
}

// Logout revokes the caller's token for the rest of its validity.
func (s *AuthService) Logout(ctx context.Context, ident models.Identity) error {
	if s.denylist == nil || ident.TokenID == "" {
		return nil
	}
	if err := s.denylist.Revoke(ctx, ident.TokenID, time.Until(ident.ExpiresAt)); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
