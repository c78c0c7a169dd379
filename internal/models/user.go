package models

import "time"

// Role is the authorization level of a user
type Role string

// Role constants
const (
	RoleAdmin      Role = "admin"
	RoleStandard   Role = "standard"
	RoleRestricted Role = "restricted"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStandard, RoleRestricted:
		return true
	default:
		return false
	}
}

// User represents an account in the system
type User struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never serialize password hash
	Role         Role       `json:"role"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

// IsDeleted reports whether the user has been soft-deleted
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// ExternalIdentity is an account at an OAuth provider. Provider and Subject
// identify it; the other fields seed the local user created on first login.
type ExternalIdentity struct {
	Provider string
	Subject  string
	Name     string
	Username string
	Email    string
}

// PublicUser is the user representation returned to other users
type PublicUser struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Public converts a user into its public representation
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Username: u.Username}
}

// CreateUserRequest is the body of a user creation request
type CreateUserRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateRoleRequest is the body of a role change request
type UpdateRoleRequest struct {
	Role Role `json:"role"`
}
