package auth

import (
	"fmt"

	"github.com/geocoder89/schoolhub/internal/domain/user"
)

// Identity is the verified caller. It is built once per request from the
// token claims and passed explicitly; nothing downstream compares raw role
// strings or reaches for ambient session state.
type Identity struct {
	UserID         string
	Email          string
	Role           user.Role
	OrganizationID string
	FirstName      *string
	LastName       *string
}

// IdentityFromClaims projects verified claims into a typed Identity.
// This is the single point where the role string is parsed; a token with a
// role outside the closed set is treated as no identity at all.
func IdentityFromClaims(c *Claims) (Identity, error) {
	if c == nil {
		return Identity{}, fmt.Errorf("nil claims")
	}

	role, err := user.ParseRole(c.Role)

	if err != nil {
		return Identity{}, fmt.Errorf("claims role %q: %w", c.Role, err)
	}

	if c.UserID == "" || c.OrganizationID == "" {
		return Identity{}, fmt.Errorf("claims missing subject or organization")
	}

	return Identity{
		UserID:         c.UserID,
		Email:          c.Email,
		Role:           role,
		OrganizationID: c.OrganizationID,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
	}, nil
}

// Authorize reports whether role is a member of allowed. Exact match only:
// ADMIN does not implicitly satisfy a TEACHER-only gate.
func Authorize(role user.Role, allowed ...user.Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}

	return false
}
