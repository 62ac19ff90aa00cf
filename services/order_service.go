package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"order-desk/logger"
	"order-desk/metrics"
	"order-desk/models"
	"order-desk/repositories"
)

const msgOrderModified = "Order was modified by another request, reload and try again"

type OrderService struct {
	orderRepo repositories.OrderRepository
	userRepo  repositories.UserRepository
	notifier  Notifier
}

func NewOrderService(orderRepo repositories.OrderRepository, userRepo repositories.UserRepository, notifier Notifier) *OrderService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &OrderService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		notifier:  notifier,
	}
}

// CreateOrder stores a new Pending order owned by the caller. A missing
// totalPrice is computed from the line items.
func (s *OrderService) CreateOrder(ctx context.Context, req models.CreateOrderRequest, caller models.Identity) (*models.Order, error) {
	if strings.TrimSpace(caller.UserID) == "" {
		return nil, reject(ErrUnauthorized, "User not authenticated properly")
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	total := models.ItemsTotal(req.Items)
	if req.TotalPrice != nil {
		total = *req.TotalPrice
	}
	if err := validateTotalPrice(total); err != nil {
		return nil, err
	}

	order := &models.Order{
		User:       caller.UserID,
		Items:      req.Items,
		TotalPrice: total,
		Status:     models.StatusPending,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	metrics.OrderEvents.WithLabelValues("created").Inc()
	logger.WithCtx(ctx).Info("order created", "order_id", order.ID, "user_id", order.User)
	return order, nil
}

// ListAllOrders returns every order with its owner resolved. A zero page
// returns everything.
func (s *OrderService) ListAllOrders(ctx context.Context, page models.Page, caller models.Identity) ([]models.OrderWithOwner, int, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, 0, err
	}
	orders, total, err := s.orderRepo.FindAll(ctx, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, caller models.Identity) ([]models.Order, error) {
	orders, err := s.orderRepo.FindByUser(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string, caller models.Identity) (*models.Order, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAccess(order.User, caller) {
		return nil, reject(ErrForbidden, "Not authorized to view this order")
	}
	return order, nil
}

// UpdateOrder applies a partial update. Items are replaced only by a non-empty
// list, and status only by an admin; a non-admin status is ignored.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, req models.UpdateOrderRequest, caller models.Identity) (*models.Order, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAccess(order.User, caller) {
		return nil, reject(ErrForbidden, "Not authorized to update this order")
	}
	if req.Version != nil && *req.Version != order.Version {
		return nil, reject(ErrConflict, msgOrderModified)
	}

	if len(req.Items) > 0 {
		if err := validateItems(req.Items); err != nil {
			return nil, err
		}
		order.Items = req.Items
	}
	if req.TotalPrice != nil {
		if err := validateTotalPrice(*req.TotalPrice); err != nil {
			return nil, err
		}
		order.TotalPrice = *req.TotalPrice
	}

	previous := order.Status
	if caller.IsAdmin && hasValue(req.Status) {
		var status models.OrderStatus
		if err := json.Unmarshal(req.Status, &status); err != nil || !status.Valid() {
			return nil, &ValidationError{
				Message: "Validation error",
				Fields:  []string{fmt.Sprintf("status must be one of %s, %s, %s", models.StatusPending, models.StatusShipped, models.StatusDelivered)},
			}
		}
		order.Status = status
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, s.storeError("update order", err)
	}

	metrics.OrderEvents.WithLabelValues("updated").Inc()
	if order.Status != previous {
		metrics.OrderEvents.WithLabelValues("status_" + strings.ToLower(string(order.Status))).Inc()
		s.notifyStatusChange(ctx, *order)
	}
	return order, nil
}

// DeleteOrder removes an order. Owners cannot delete shipped orders and
// ownerless orders can only be deleted by an admin. A non-zero
// expectedVersion must match the stored version.
func (s *OrderService) DeleteOrder(ctx context.Context, id string, expectedVersion int64, caller models.Identity) error {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return err
	}

	if order.User != "" {
		if !CanAccess(order.User, caller) {
			return reject(ErrForbidden, "Not authorized to delete this order")
		}
	} else if !caller.IsAdmin {
		return reject(ErrForbidden, "Only admins can delete orders without assigned users")
	}

	if order.Status == models.StatusShipped && !caller.IsAdmin {
		return reject(ErrInvalidState, "Cannot delete an order that has been shipped. Please contact customer support.")
	}
	if expectedVersion != 0 && expectedVersion != order.Version {
		return reject(ErrConflict, msgOrderModified)
	}

	if err := s.orderRepo.Delete(ctx, order.ID, order.Version); err != nil {
		return s.storeError("delete order", err)
	}

	metrics.OrderEvents.WithLabelValues("deleted").Inc()
	return nil
}

func (s *OrderService) findOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, reject(ErrNotFound, "Order not found")
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (s *OrderService) storeError(op string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrVersionConflict):
		metrics.OrderEvents.WithLabelValues("conflict").Inc()
		return reject(ErrConflict, msgOrderModified)
	case errors.Is(err, repositories.ErrNotFound):
		return reject(ErrNotFound, "Order not found")
	}
	return fmt.Errorf("%s: %w", op, err)
}

func hasValue(raw json.RawMessage) bool {
	v := strings.TrimSpace(string(raw))
	return v != "" && v != "null"
}

func (s *OrderService) notifyStatusChange(ctx context.Context, order models.Order) {
	if order.User == "" {
		return
	}
	owner, err := s.userRepo.FindByID(ctx, order.User)
	if err != nil {
		logger.WithCtx(ctx).Warn("order owner lookup failed, skipping notification", "order_id", order.ID, "error", err)
		return
	}
	s.notifier.OrderStatusChanged(ctx, *owner, order)
}
