package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-desk/models"
)

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "A", "a@x.com", false)

	order, err := f.orders.CreateOrder(ctx, models.CreateOrderRequest{Items: widget(), TotalPrice: ptr(10.0)}, a)
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, a.UserID, order.User)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 10.0, order.TotalPrice)
	assert.Equal(t, int64(1), order.Version)
}

func TestCreateOrderComputesMissingTotal(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "A", "a@x.com", false)

	items := []models.LineItem{{Name: "Widget", Quantity: 2, Price: 5}, {Name: "Bolt", Quantity: 3, Price: 1.5}}
	order, err := f.orders.CreateOrder(context.Background(), models.CreateOrderRequest{Items: items}, a)
	require.NoError(t, err)
	assert.InDelta(t, 14.5, order.TotalPrice, 1e-9)
}

func TestCreateOrderValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "A", "a@x.com", false)

	tests := []struct {
		name   string
		req    models.CreateOrderRequest
		fields []string
	}{
		{name: "no items", req: models.CreateOrderRequest{}},
		{name: "empty items", req: models.CreateOrderRequest{Items: []models.LineItem{}}},
		{
			name:   "item without name",
			req:    models.CreateOrderRequest{Items: []models.LineItem{{Quantity: 1, Price: 1}}},
			fields: []string{"items[0].name is required"},
		},
		{
			name:   "zero quantity",
			req:    models.CreateOrderRequest{Items: []models.LineItem{{Name: "W", Quantity: 0, Price: 1}}},
			fields: []string{"items[0].quantity must be at least 1"},
		},
		{
			name:   "negative total",
			req:    models.CreateOrderRequest{Items: widget(), TotalPrice: ptr(-1.0)},
			fields: []string{"totalPrice must be greater than or equal to 0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.CreateOrder(ctx, tt.req, a)
			require.ErrorIs(t, err, ErrInvalidInput)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			if tt.fields != nil {
				assert.Equal(t, tt.fields, verr.Fields)
			}
		})
	}

	orders, err := f.orders.ListMyOrders(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderWithoutCaller(t *testing.T) {
	f := newFixture(t)
	_, err := f.orders.CreateOrder(context.Background(), models.CreateOrderRequest{Items: widget()}, models.Identity{})
	requireKind(t, err, ErrUnauthorized, "User not authenticated properly")
}

func TestListOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "A", "a@x.com", false)
	b := f.register(t, "B", "b@x.com", false)
	admin := f.register(t, "Root", "root@x.com", true)

	for _, caller := range []models.Identity{a, a, b} {
		_, err := f.orders.CreateOrder(ctx, models.CreateOrderRequest{Items: widget()}, caller)
		require.NoError(t, err)
	}

	mine, err := f.orders.ListMyOrders(ctx, a)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, _, err = f.orders.ListAllOrders(ctx, models.Page{}, a)
	requireKind(t, err, ErrForbidden, "Access denied")

	all, total, err := f.orders.ListAllOrders(ctx, models.Page{}, admin)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, all, 3)
	for _, o := range all {
		require.NotNil(t, o.User)
		assert.NotEmpty(t, o.User.Email)
	}

	paged, total, err := f.orders.ListAllOrders(ctx, models.Page{Number: 2, Limit: 2}, admin)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, paged, 1)
}

func TestGetOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "A", "a@x.com", false)
	b := f.register(t, "B", "b@x.com", false)
	admin := f.register(t, "Root", "root@x.com", true)

	order, err := f.orders.CreateOrder(ctx, models.CreateOrderRequest{Items: widget()}, a)
	require.NoError(t, err)

	_, err = f.orders.GetOrder(ctx, order.ID, a)
	require.NoError(t, err)
	_, err = f.orders.GetOrder(ctx, order.ID, admin)
	require.NoError(t, err)
	_, err = f.orders.GetOrder(ctx, order.ID, b)
	requireKind(t, err, ErrForbidden, "")
	_, err = f.orders.GetOrder(ctx, "missing", a)
	requireKind(t, err, ErrNotFound, "Order not found")
}

func TestUpdateOrderByOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "A", "a@x.com", false)

	order, err := f.orders.CreateOrder(ctx, models.CreateOrderRequest{Items: widget(), TotalPrice: ptr(10.0)}, a)
	require.NoError(t, err)

	updated, err := f.orders.UpdateOrder(ctx, order.ID, models.UpdateOrderRequest{
		Items:  []models.LineItem{{Name: "Gadget", Quantity: 1, Price: 3}},
		Status: statusJSON(models.StatusShipped),
	}, a)
	require.NoError(t, err)
	assert.Equal(t, "Gadget", updated.Items[0].Name)
	assert.Equal(t, 10.0, updated.TotalPrice, "total is not recomputed on update")
	assert.Equal(t, models.StatusPending, updated.Status, "owner cannot change status")
	assert.Equal(t, int64(2), updated.Version)
	assert.Empty(t, f.notifier.statuses)

	ignored, err := f.orders.UpdateOrder(ctx, order.ID, models.UpdateOrderRequest{Status: json.RawMessage(`5`)}, a)
	require.NoError(t, err, "a malformed status from an owner is ignored")
	assert.Equal(t, models.StatusPending, ignored.Status)

	zeroed, err := f.orders.UpdateOrder(ctx, order.ID, models.UpdateOrderRequest{TotalPrice: ptr(0.0), Items: []models.LineItem{}}, a)
	require.NoError(t, err)
	assert.Equal(t, 0.0, zeroed.TotalPrice)
	assert.Equal(t, "Gadget", zeroed.Items[0].Name, "empty items leave items untouched")
}

func TestUpdateOrderStatusByAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "A", "a@x.com", false)
	admin := f.register(t, "Root", "root@x.com", true)

	order, err := f.orders.CreateOrder(ctx, models.CreateOrderRequest{Items: widget()}, a)
	require.NoError(t, err)

	updated, err := f.orders.UpdateOrder(ctx, order.ID, models.UpdateOrderRequest{Status: statusJSON(models.StatusShipped)}, admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, updated.Status)
	assert.Equal(t, []statusNotice{{email: "a@x.com", status: models.StatusShipped}}, f.notifier.statuses)

	for _, bogus := range []json.RawMessage{statusJSON("Lost"), json.RawMessage(`5`)} {
		_, err = f.orders.UpdateOrder(ctx, order.ID, models.UpdateOrderRequest{Status: bogus}, admin)
		require.ErrorIs(t, err, ErrInvalidInput, string(bogus))
	}

	unchanged, err := f.orders.UpdateOrder(ctx, order.ID, models.UpdateOrderRequest{Status: json.RawMessage(`null`)}, admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, unchanged.Status)
}

func TestUpdateOrderForbidden(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "A", "a@x.com", false)
	b := f.register(t, "B", "b@x.com", false)

	order, err := f.orders.CreateOrder(ctx, models.CreateOrderRequest{Items: widget()}, a)
	require.NoError(t, err)

	_, err = f.orders.UpdateOrder(ctx, order.ID, models.UpdateOrderRequest{TotalPrice: ptr(1.0)}, b)
	requireKind(t, err, ErrForbidden, "Not authorized to update this order")

	_, err = f.orders.UpdateOrder(ctx, "missing", models.UpdateOrderRequest{}, a)
	requireKind(t, err, ErrNotFound, "Order not found")
}

func TestUpdateOrderStaleVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "A", "a@x.com", false)

	order, err := f.orders.CreateOrder(ctx, models.CreateOrderRequest{Items: widget()}, a)
	require.NoError(t, err)

	_, err = f.orders.UpdateOrder(ctx, order.ID, models.UpdateOrderRequest{TotalPrice: ptr(1.0), Version: ptr(int64(1))}, a)
	require.NoError(t, err)

	_, err = f.orders.UpdateOrder(ctx, order.ID, models.UpdateOrderRequest{TotalPrice: ptr(2.0), Version: ptr(int64(1))}, a)
	requireKind(t, err, ErrConflict, msgOrderModified)

	stored, err := f.store.Orders().FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, stored.TotalPrice)
}

func TestDeleteOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "A", "a@x.com", false)
	b := f.register(t, "B", "b@x.com", false)

	order, err := f.orders.CreateOrder(ctx, models.CreateOrderRequest{Items: widget()}, a)
	require.NoError(t, err)

	err = f.orders.DeleteOrder(ctx, order.ID, 0, b)
	requireKind(t, err, ErrForbidden, "Not authorized to delete this order")

	err = f.orders.DeleteOrder(ctx, order.ID, 7, a)
	requireKind(t, err, ErrConflict, msgOrderModified)

	require.NoError(t, f.orders.DeleteOrder(ctx, order.ID, 0, a))

	err = f.orders.DeleteOrder(ctx, order.ID, 0, a)
	requireKind(t, err, ErrNotFound, "Order not found")
}

func TestDeleteShippedOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "A", "a@x.com", false)
	admin := f.register(t, "Root", "root@x.com", true)

	order, err := f.orders.CreateOrder(ctx, models.CreateOrderRequest{Items: widget()}, a)
	require.NoError(t, err)
	_, err = f.orders.UpdateOrder(ctx, order.ID, models.UpdateOrderRequest{Status: statusJSON(models.StatusShipped)}, admin)
	require.NoError(t, err)

	err = f.orders.DeleteOrder(ctx, order.ID, 0, a)
	requireKind(t, err, ErrInvalidState, "Cannot delete an order that has been shipped. Please contact customer support.")

	require.NoError(t, f.orders.DeleteOrder(ctx, order.ID, 0, admin))
}

func TestDeleteOwnerlessOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "A", "a@x.com", false)
	admin := f.register(t, "Root", "root@x.com", true)

	orphan := &models.Order{Items: widget(), TotalPrice: 10, Status: models.StatusPending}
	require.NoError(t, f.store.Orders().Create(ctx, orphan))

	err := f.orders.DeleteOrder(ctx, orphan.ID, 0, a)
	requireKind(t, err, ErrForbidden, "Only admins can delete orders without assigned users")

	require.NoError(t, f.orders.DeleteOrder(ctx, orphan.ID, 0, admin))
}
