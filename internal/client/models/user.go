// Package models defines the loan domain entities exchanged with the API,
// their presentation mappers and the client-side form validators.
package models

// Role is the RBAC role of an account.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleStaff      Role = "STAFF"
	RoleClient     Role = "CLIENT"
	RoleSuperAdmin Role = "SUPERADMIN"
)

// Roles lists every known role in display order.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleStaff, RoleClient}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleClient, RoleSuperAdmin:
		return true
	}
	return false
}

func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleStaff:
		return "Staff"
	case RoleClient:
		return "Client"
	case RoleSuperAdmin:
		return "Super Admin"
	}
	return string(r)
}

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	UserStatusActive     UserStatus = "ACTIVE"
	UserStatusUnverified UserStatus = "UNVERIFIED"
	UserStatusSuspended  UserStatus = "SUSPENDED"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusUnverified, UserStatusSuspended:
		return true
	}
	return false
}

func (s UserStatus) Label() string {
	switch s {
	case UserStatusActive:
		return "Active"
	case UserStatusUnverified:
		return "Unverified"
	case UserStatusSuspended:
		return "Suspended"
	}
	return string(s)
}

// User is an account as returned by the API.
type User struct {
	ID       string     `json:"_id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Username string     `json:"username"`
	Role     Role       `json:"role"`
	Status   UserStatus `json:"status"`
	CustomID string     `json:"custom_id,omitempty"`
}

// FilterByRole returns the users having role, preserving order.
func FilterByRole(users []User, role Role) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out
}

// LoginResult is the payload of a successful login.
type LoginResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
