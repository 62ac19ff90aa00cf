package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"order-desk/logger"
	"order-desk/models"
	"order-desk/services"
)

const identityKey = "identity"

func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, err := auth.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Message: ruleMessage(err, "Invalid token"),
			})
			return
		}
		setIdentity(c, ident)
		c.Next()
	}
}

// OptionalAuth resolves the caller when an Authorization header is present
// and lets anonymous requests through. A bad token is still rejected.
func OptionalAuth(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		AuthMiddleware(auth)(c)
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Authorization header missing"})
			return
		}
		if err := services.RequireAdmin(ident); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Message: ruleMessage(err, "Access denied")})
			return
		}
		c.Next()
	}
}

func CurrentIdentity(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	ident, ok := v.(models.Identity)
	return ident, ok
}

func setIdentity(c *gin.Context, ident models.Identity) {
	c.Set(identityKey, ident)
	log := logger.WithCtx(c.Request.Context()).With("user_id", ident.UserID)
	c.Request = c.Request.WithContext(logger.Inject(c.Request.Context(), log))
}

func ruleMessage(err error, fallback string) string {
	var rule *services.RuleError
	if errors.As(err, &rule) {
		return rule.Message
	}
	return fallback
}
