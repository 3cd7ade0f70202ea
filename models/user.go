package models

import (
	"slices"
	"strings"
	"time"
)

type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleUser       Role = "user"
	RoleClient     Role = "client"
	RoleGuest      Role = "guest"
)

// AllRoles lists the roles in decreasing privilege.
var AllRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleManager, RoleUser, RoleClient, RoleGuest}

// ParseRole returns RoleGuest for anything it does not recognise.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(AllRoles, r) {
		return r
	}
	return RoleGuest
}

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	return slices.Contains(roles, r)
}

// Staff roles may see the client directory.
func (r Role) Staff() bool {
	return r.In(RoleAdmin, RoleManager, RoleUser)
}

type User struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	Avatar     string     `json:"avatar,omitempty"`
	Status     string     `json:"status,omitempty"`
	AgencyID   string     `json:"agencyId,omitempty"`
	MFAEnabled bool       `json:"mfaEnabled"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// UserInput is the admin payload for creating or updating a user.
type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
	AgencyID string `json:"agency,omitempty"`
}
