package domain

import (
	"context"
	"fmt"
	"time"
)

// Role controls which privileged operations an identity may request.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// ParseRole converts a raw string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleManager, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// User is a user account document. Email is unique across all users and
// never changes after creation.
type User struct {
	ID        string
	Email     string
	Role      Role
	Profile   map[string]any // arbitrary caller-supplied fields
	CreatedAt time.Time
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create inserts the user and assigns its ID. Returns ErrDuplicateEmail
	// when another record already holds the email.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Delete(ctx context.Context, id string) (DeleteResult, error)
	SetRole(ctx context.Context, id string, role Role) (UpdateResult, error)
}
