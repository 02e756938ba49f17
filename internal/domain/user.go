package domain

import "time"

// Role is the fixed role a user registers with.
type Role string

const (
	RoleUser   Role = "ROLE_USER"
	RoleDriver Role = "ROLE_DRIVER"
)

// ParseRole converts a raw role string into a Role.
// The second return value is false for anything outside the known set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, true
	case RoleDriver:
		return RoleDriver, true
	default:
		return "", false
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// User represents an account in the system.
type User struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash"`
	Role         Role      `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
}

// Principal is the authenticated actor behind a request.
// It is resolved from the bearer token and passed explicitly to services.
type Principal struct {
	UserID   string
	Username string
	Role     Role
}

// IsDriver reports whether the principal carries the driver role.
func (p Principal) IsDriver() bool {
	return p.Role == RoleDriver
}
