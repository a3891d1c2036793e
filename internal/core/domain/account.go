package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// reservedUsernames may only be held by an account that is already an admin.
// The empty string is included so a blank username can never be claimed.
var reservedUsernames = map[string]struct{}{
	"":      {},
	"admin": {},
}

// IsReservedUsername reports whether username belongs to the reserved set.
func IsReservedUsername(username string) bool {
	_, ok := reservedUsernames[username]
	return ok
}

// Account models an identity record in the system.
type Account struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	Name              string    `json:"name"`
	PasswordHash      string    `json:"-"`
	Role              string    `json:"role"`
	Email             string    `json:"email,omitempty"`
	ProfilePictureRef string    `json:"profile_picture_ref,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsAdmin reports whether the account carries the admin role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// TokenClaims is the principal derived from a verified API token. It is an
// immutable, request-scoped value once decoded.
type TokenClaims struct {
	AccountID string
	Username  string
	Role      string
}

// IsAdmin reports whether the principal carries the admin role.
func (c TokenClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
