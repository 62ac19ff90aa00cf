package services

import (
	"context"
	"time"

	"order-desk/models"
)

// Notifier delivers user-facing notifications. Implementations must not
// block the request for delivery.
type Notifier interface {
	UserRegistered(ctx context.Context, user models.User)
	OrderStatusChanged(ctx context.Context, owner models.User, order models.Order)
}

type NopNotifier struct{}

func (NopNotifier) UserRegistered(context.Context, models.User) {}

func (NopNotifier) OrderStatusChanged(context.Context, models.User, models.Order) {}

// TokenDenylist records revoked token ids.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
