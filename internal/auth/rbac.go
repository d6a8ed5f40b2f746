package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/care-scheduling-service/internal/domain"
	apperrors "github.com/spec-kit/care-scheduling-service/pkg/util"
)

// Permission names a guarded operation.
type Permission string

const (
	PermReadProfessional   Permission = "professional:read"
	PermCreateProfessional Permission = "professional:create"
	PermUpdateProfessional Permission = "professional:update"
	PermDeleteProfessional Permission = "professional:delete"
	PermReadAppointment    Permission = "appointment:read"
	PermCreateAppointment  Permission = "appointment:create"
	PermUpdateAppointment  Permission = "appointment:update"
	PermDeleteAppointment  Permission = "appointment:delete"
	PermManageUsers        Permission = "user:manage"
	PermViewMetrics        Permission = "metrics:view"
)

// rolePermissions is the static role→permission mapping.
var rolePermissions = map[domain.Role]map[Permission]struct{}{
	domain.RoleViewer: permSet(
		PermReadProfessional,
		PermReadAppointment,
	),
	domain.RoleStaff: permSet(
		PermReadProfessional,
		PermCreateProfessional,
		PermUpdateProfessional,
		PermReadAppointment,
		PermCreateAppointment,
		PermUpdateAppointment,
	),
	domain.RoleAdmin: permSet(
		PermReadProfessional,
		PermCreateProfessional,
		PermUpdateProfessional,
		PermDeleteProfessional,
		PermReadAppointment,
		PermCreateAppointment,
		PermUpdateAppointment,
		PermDeleteAppointment,
		PermManageUsers,
		PermViewMetrics,
	),
}

func permSet(perms ...Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Allowed evaluates the static role→permission mapping as a pure function.
func Allowed(role domain.Role, perm Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = perms[perm]
	return ok
}

// RequirePermission guards a route with the RBAC mapping. The denial message
// never discloses whether the target resource exists.
func RequirePermission(perm Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !Allowed(principal.Role, perm) {
			return apperrors.NewForbidden("operation not permitted")
		}
		return c.Next()
	}
}
