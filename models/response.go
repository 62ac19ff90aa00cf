package models

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type UserResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

type PaginationLinks struct {
	Self string `json:"self"`
	Next string `json:"next,omitempty"`
	Prev string `json:"prev,omitempty"`
}

type PaginatedOrdersResponse struct {
	Orders     []OrderWithOwner `json:"orders"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalItems int              `json:"totalItems"`
	TotalPages int              `json:"totalPages"`
	Links      PaginationLinks  `json:"links"`
}
