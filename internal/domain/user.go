package domain

import "strings"

type User struct {
	ID       string `db:"id" json:"id"`
	Email    string `db:"email" json:"email"`
	Username string `db:"username" json:"username"`
	Hash     string `db:"password_hash" json:"-"`
	RoleType string `db:"role_type" json:"-"`
	RoleName string `db:"role_name" json:"-"`
}

// Role tags as stored in users.role_type.
const (
	RoleAdmin         = "admin"
	RoleAuthenticated = "authenticated"
)

// Identity is the caller attached to a request by the bearer middleware.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	RoleType string `json:"roleType"`
	RoleName string `json:"roleName"`
}

func (u User) Identity() *Identity {
	return &Identity{ID: u.ID, Email: u.Email, Username: u.Username, RoleType: u.RoleType, RoleName: u.RoleName}
}

// IsAdmin accepts either the role type or the role name, some user records only carry one.
func (i *Identity) IsAdmin() bool {
	if i == nil {
		return false
	}
	return strings.EqualFold(i.RoleType, RoleAdmin) || strings.EqualFold(i.RoleName, RoleAdmin)
}
