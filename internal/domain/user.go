package domain

import (
	"context"
	"strings"
)

// Role is an application role carried in access tokens.
type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleOrganizer Role = "Organizer"
	RoleUser      Role = "User"
)

// ParseRole parses a role name case-insensitively; unknown names map to RoleUser.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	case "organizer":
		return RoleOrganizer
	}
	return RoleUser
}

// User is an account owned by the identity service; this service only reads it.
// swagger:model User
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Email  string
	Roles  []Role
}

// HasRole reports whether p holds any of roles.
func (p Principal) HasRole(roles ...Role) bool {
	for _, have := range p.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// TokenVerifier verifies a bearer token and returns the authenticated principal.
type TokenVerifier interface {
	Verify(token string) (Principal, error)
}

// UserRepository reads users from the identity service's table.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*User, error)
}
