package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrInvalidRole = errors.New("invalid role")
)

// Role is a closed set. Raw strings coming from tokens or request bodies
// must go through ParseRole before they are compared to anything.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return Role(raw), nil
	}

	return "", ErrInvalidRole
}

// SortKey orders listings admin first, then teachers, then students.
// Text collation would put STUDENT before TEACHER, so the rank is explicit.
func (r Role) SortKey() int {
	switch r {
	case RoleAdmin:
		return 0
	case RoleTeacher:
		return 1
	case RoleStudent:
		return 2
	}

	return 3
}

func (r Role) String() string {
	return string(r)
}

type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	HashedPassword  string    `json:"-"` // never expose hash in JSON
	FirstName       *string   `json:"firstName"`
	LastName        *string   `json:"lastName"`
	Role            Role      `json:"role"`
	OrganizationID  string    `json:"organizationId"`
	CreatedByUserID *string   `json:"createdByUserId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Summary is the outward-facing shape of a user. Everything that crosses
// the trust boundary goes through Sanitize, so the hash can never leak.
type Summary struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       *string   `json:"firstName"`
	LastName        *string   `json:"lastName"`
	Role            Role      `json:"role"`
	OrganizationID  string    `json:"organizationId"`
	CreatedByUserID *string   `json:"createdByUserId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func Sanitize(u User) Summary {
	return Summary{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role,
		OrganizationID:  u.OrganizationID,
		CreatedByUserID: u.CreatedByUserID,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func SanitizeAll(users []User) []Summary {
	out := make([]Summary, 0, len(users))

	for _, u := range users {
		out = append(out, Sanitize(u))
	}

	return out
}
