package navigation

import "auto-uc2-dashboard/models"

// RoleSource reads the role of the stored session; *session.Manager satisfies it.
type RoleSource interface {
	Role() models.Role
}

type Guard struct {
	src RoleSource
}

func NewGuard(src RoleSource) Guard {
	return Guard{src: src}
}

// Allows reports whether the current role is one of roles. A guest never passes.
func (g Guard) Allows(roles ...models.Role) bool {
	if g.src == nil {
		return false
	}
	r := g.src.Role()
	return r != models.RoleGuest && r.In(roles...)
}

// Protect returns content when the current role is allowed, fallback otherwise.
func Protect[T any](g Guard, roles []models.Role, content, fallback T) T {
	if g.Allows(roles...) {
		return content
	}
	return fallback
}
