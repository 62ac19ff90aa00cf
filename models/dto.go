package models

import "encoding/json"

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	IsAdmin  bool   `json:"isAdmin"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest fields are optional; nil or empty means "leave unchanged".
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6"`
	IsAdmin  *bool   `json:"isAdmin"`
}

// CreateOrderRequest has no status field: new orders are always Pending.
type CreateOrderRequest struct {
	Items      []LineItem `json:"items"`
	TotalPrice *float64   `json:"totalPrice"`
}

// UpdateOrderRequest keeps status undecoded: it is only read for admin
// callers, so whatever a non-admin sends there is ignored.
type UpdateOrderRequest struct {
	Items      []LineItem      `json:"items"`
	TotalPrice *float64        `json:"totalPrice"`
	Status     json.RawMessage `json:"status" swaggertype:"string" enums:"Pending,Shipped,Delivered"`
	Version    *int64          `json:"version"`
}

type Page struct {
	Number int
	Limit  int
}

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit
}
