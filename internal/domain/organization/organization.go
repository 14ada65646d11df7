package organization

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("organization not found")

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
