package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"order-desk/models"
	"order-desk/repositories"
	"order-desk/utils"
)

type UserService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) ListUsers(ctx context.Context, caller models.Identity) ([]models.User, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetUser(ctx context.Context, id string, caller models.Identity) (*models.User, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAccess(user.ID, caller) {
		return nil, reject(ErrForbidden, "Unauthorized action")
	}
	return user, nil
}

// UpdateUser applies a partial update. The admin flag is only changed when
// the caller is an admin; otherwise it is silently kept.
func (s *UserService) UpdateUser(ctx context.Context, id string, req models.UpdateUserRequest, caller models.Identity) (*models.User, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAccess(user.ID, caller) {
		return nil, reject(ErrForbidden, "Unauthorized action")
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		user.Email = normalizeEmail(*req.Email)
	}
	if req.Password != nil && *req.Password != "" {
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.Password = hashed
	}
	if req.IsAdmin != nil && caller.IsAdmin {
		user.IsAdmin = *req.IsAdmin
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateEmail):
			return nil, reject(ErrConflict, "Email already in use")
		case errors.Is(err, repositories.ErrNotFound):
			return nil, reject(ErrNotFound, "User not found")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string, caller models.Identity) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return reject(ErrNotFound, "User not found")
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CreateAdmin provisions an admin account out-of-band. An existing user with
// the same email is promoted and gets the new password.
func (s *UserService) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, bool, error) {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	email = normalizeEmail(email)
	existing, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		existing.IsAdmin = true
		existing.Password = hashed
		if strings.TrimSpace(name) != "" {
			existing.Name = strings.TrimSpace(name)
		}
		if err := s.userRepo.Update(ctx, existing); err != nil {
			return nil, false, fmt.Errorf("promote user: %w", err)
		}
		return existing, false, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, false, fmt.Errorf("lookup email: %w", err)
	}

	user := &models.User{Name: strings.TrimSpace(name), Email: email, Password: hashed, IsAdmin: true}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create admin: %w", err)
	}
	return user, true, nil
}

func (s *UserService) findUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, reject(ErrNotFound, "User not found")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
