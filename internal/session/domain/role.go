package domain

import "strings"

// Role names carried into the security context. Roles are flat; holding
// ROLE_ADMIN does not imply ROLE_USER.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// NormalizeRole upper-cases a role and adds the ROLE_ prefix when missing,
// so "admin" and "ROLE_ADMIN" name the same role.
func NormalizeRole(r string) string {
	r = strings.ToUpper(strings.TrimSpace(r))
	if r == "" {
		return ""
	}
	if !strings.HasPrefix(r, "ROLE_") {
		r = "ROLE_" + r
	}
	return r
}
