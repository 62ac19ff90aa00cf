package services

import (
	"strings"

	"order-desk/models"
)

func RequireAdmin(ident models.Identity) error {
	if !ident.IsAdmin {
		return reject(ErrForbidden, "Access denied")
	}
	return nil
}

// CanAccess is the single ownership rule: the caller owns the resource or is an admin.
func CanAccess(ownerID string, ident models.Identity) bool {
	if ident.IsAdmin {
		return true
	}
	owner := normalizeID(ownerID)
	return owner != "" && owner == normalizeID(ident.UserID)
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
