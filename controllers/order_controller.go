package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"order-desk/models"
	"order-desk/services"
)

type OrderController struct {
	orderService *services.OrderService
}

func NewOrderController(orderService *services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// CreateOrder godoc
// @Summary Create order
// @Description Create a Pending order for the caller. totalPrice defaults to the sum of quantity * price.
// @Tags Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.CreateOrderRequest true "Order"
// @Success 201 {object} models.Order
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /orders [post]
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctrl.orderService.CreateOrder(c.Request.Context(), req, currentIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetAllOrders godoc
// @Summary List all orders
// @Description Every order with its owner's name and email (Admin). With page, returns models.PaginatedOrdersResponse instead.
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {array} models.OrderWithOwner
// @Failure 403 {object} models.ErrorResponse
// @Router /orders [get]
func (ctrl *OrderController) GetAllOrders(c *gin.Context) {
	ctx := c.Request.Context()

	if _, paged := c.GetQuery("page"); !paged {
		orders, _, err := ctrl.orderService.ListAllOrders(ctx, models.Page{}, currentIdentity(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
		return
	}

	page := getPaginationParams(c, 10)
	orders, total, err := ctrl.orderService.ListAllOrders(ctx, page, currentIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}

	pages := totalPages(total, page.Limit)
	c.JSON(http.StatusOK, models.PaginatedOrdersResponse{
		Orders:     orders,
		Page:       page.Number,
		Limit:      page.Limit,
		TotalItems: total,
		TotalPages: pages,
		Links:      generateLinks(c, page.Number, page.Limit, pages),
	})
}

// GetMyOrders godoc
// @Summary List my orders
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Order
// @Failure 401 {object} models.ErrorResponse
// @Router /orders/my-orders [get]
func (ctrl *OrderController) GetMyOrders(c *gin.Context) {
	orders, err := ctrl.orderService.ListMyOrders(c.Request.Context(), currentIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrderByID godoc
// @Summary Get order
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} models.Order
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /orders/{id} [get]
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	order, err := ctrl.orderService.GetOrder(c.Request.Context(), c.Param("id"), currentIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrder godoc
// @Summary Update order
// @Description Owner or admin. status is only applied for admins. A stale version is rejected with 409.
// @Tags Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body models.UpdateOrderRequest true "Fields to change"
// @Success 200 {object} models.Order
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /orders/{id} [put]
func (ctrl *OrderController) UpdateOrder(c *gin.Context) {
	var req models.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctrl.orderService.UpdateOrder(c.Request.Context(), c.Param("id"), req, currentIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder godoc
// @Summary Delete order
// @Description Owner or admin. Owners cannot delete shipped orders.
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param id path string true "Order ID"
// @Param version query int false "Expected order version"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /orders/{id} [delete]
func (ctrl *OrderController) DeleteOrder(c *gin.Context) {
	var version int64
	if raw := c.Query("version"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 1 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "version must be a positive integer"})
			return
		}
		version = v
	}

	if err := ctrl.orderService.DeleteOrder(c.Request.Context(), c.Param("id"), version, currentIdentity(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Order deleted successfully"})
}
