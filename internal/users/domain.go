package users

import (
	"time"

	"github.com/lumina-lms/lumina-lms/internal/authz"
)

// User is the directory view of an account. Credentials never leave the
// auth package; this shape is what course participants see of each other.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EntityUser is registered under its exact name so the dedicated
// visibility handler wins over any category.
var EntityUser = authz.Entity{
	Name:  "user",
	Table: "users",
	Link:  authz.LinkNone,
}
