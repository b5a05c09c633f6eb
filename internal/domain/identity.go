package domain

import "context"

// Role is the access role carried by a user account. Roles drive channel
// assignment; unknown roles still join the base channels.
type Role string

const (
	RoleSystemAdmin     Role = "system_admin"
	RoleCompanyAdmin    Role = "company_admin"
	RoleRouteAdmin      Role = "route_admin"
	RoleCustomerService Role = "customer_service"
	RoleClient          Role = "client"
)

// Identity is the minimal view of a user account needed to admit a
// connection. Resolved from the external user store after token checks.
type Identity struct {
	ID    string
	Name  string
	Role  Role
	Email string
}

// UserStore resolves token subjects against the external user store.
type UserStore interface {
	FindIdentity(ctx context.Context, userID string) (Identity, error)
}
