package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"order-desk/logger"
	"order-desk/middleware"
	"order-desk/models"
	"order-desk/repositories"
	"order-desk/services"
	"order-desk/utils"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized), errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, utils.ErrInvalidToken), errors.Is(err, utils.ErrMalformedClaims):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound), errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict), errors.Is(err, repositories.ErrDuplicateEmail),
		errors.Is(err, repositories.ErrVersionConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes the error body for err. Unexpected errors are logged
// and reported as a generic server fault.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithCtx(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, models.ErrorResponse{Message: "Server error"})
		return
	}

	var (
		verr *services.ValidationError
		rule *services.RuleError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(status, models.ErrorResponse{Message: verr.Message, Errors: verr.Fields})
	case errors.As(err, &rule):
		c.JSON(status, models.ErrorResponse{Message: rule.Message})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(status, models.ErrorResponse{Message: "Invalid email or password"})
	default:
		c.JSON(status, models.ErrorResponse{Message: http.StatusText(status)})
	}
}

// respondBindError reports a request body that could not be bound.
func respondBindError(c *gin.Context, err error) {
	if fields := services.FieldMessages(err); len(fields) > 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation error", Errors: fields})
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Message: "Validation error",
			Errors:  []string{typeErr.Field + " has an invalid type"},
		})
		return
	}

	c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
}

func currentIdentity(c *gin.Context) models.Identity {
	ident, _ := middleware.CurrentIdentity(c)
	return ident
}
