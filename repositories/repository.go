package repositories

import (
	"context"
	"errors"

	"order-desk/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrVersionConflict = errors.New("record was modified concurrently")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// OrderRepository persists orders. Update and Delete are conditional on the
// order version: Update expects order.Version to match the stored version and
// bumps it on success; Delete with expectedVersion 0 is unconditional.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindAll(ctx context.Context, page models.Page) ([]models.OrderWithOwner, int, error)
	FindByUser(ctx context.Context, userID string) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id string, expectedVersion int64) error
}
