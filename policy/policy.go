// Package policy decides who may act on users and submissions.
package policy

import (
	"github.com/google/uuid"

	"heritage-api/apperr"
	"heritage-api/models"
)

// Principal is the authenticated caller.
type Principal struct {
	ID   uuid.UUID
	Role models.Role
}

// IsAdmin reports whether role carries administrative rights.
func IsAdmin(role models.Role) bool {
	switch role {
	case models.RoleAdmin, models.RoleSuperAdmin:
		return true
	case models.RoleContributor:
		return false
	}
	return false
}

// RequireAdmin allows Admin and Super Admin.
func RequireAdmin(p Principal) error {
	if IsAdmin(p.Role) {
		return nil
	}
	return apperr.Forbidden("Admin access required")
}

// RequireOwner allows only the owner of the resource.
func RequireOwner(p Principal, ownerID uuid.UUID) error {
	if p.ID == ownerID {
		return nil
	}
	return apperr.Forbidden("You can only modify your own submissions")
}

// RequireOwnerOrAdmin allows the owner or any administrator.
func RequireOwnerOrAdmin(p Principal, ownerID uuid.UUID) error {
	if p.ID == ownerID || IsAdmin(p.Role) {
		return nil
	}
	return apperr.Forbidden("Not authorized to delete this submission")
}

// CanDeleteUser guards account removal: admins only, never themselves.
func CanDeleteUser(p Principal, target uuid.UUID) error {
	if err := RequireAdmin(p); err != nil {
		return err
	}
	if p.ID == target {
		return apperr.InvalidOperation("You cannot delete your own account")
	}
	return nil
}
