package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/msomdec/result-processing/internal/domain"
)

// RoleCache is an optional read-through cache of role by email. Only
// existing users are cached.
type RoleCache interface {
	Get(ctx context.Context, email string) (domain.Role, bool, error)
	Set(ctx context.Context, email string, role domain.Role) error
	Invalidate(ctx context.Context, email string) error
}

// RoleAuthority answers role membership questions for authenticated
// callers. It never mutates role state.
type RoleAuthority struct {
	users domain.UserRepository
	cache RoleCache
}

// NewRoleAuthority creates a RoleAuthority. cache may be nil.
func NewRoleAuthority(users domain.UserRepository, cache RoleCache) *RoleAuthority {
	return &RoleAuthority{users: users, cache: cache}
}

// CheckRole reports whether the user stored under requestedEmail holds
// target. A caller may only ask about its own email; any other email fails
// with domain.ErrUnauthorized. An unknown email is not an error.
func (a *RoleAuthority) CheckRole(ctx context.Context, requestedEmail string, caller domain.Claims, target domain.Role) (bool, error) {
	email := caller.Email()
	if email == "" || requestedEmail != email {
		return false, domain.ErrUnauthorized
	}

	role, found, err := a.lookup(ctx, requestedEmail)
	if err != nil {
		return false, err
	}
	return found && role == target, nil
}

// HasAnyRole reports whether the caller's own record holds one of roles.
func (a *RoleAuthority) HasAnyRole(ctx context.Context, caller domain.Claims, roles ...domain.Role) (bool, error) {
	email := caller.Email()
	if email == "" {
		return false, nil
	}

	role, found, err := a.lookup(ctx, email)
	if err != nil {
		return false, err
	}
	return found && slices.Contains(roles, role), nil
}

// Authorize returns domain.ErrForbidden unless the caller's own record holds
// one of roles.
func (a *RoleAuthority) Authorize(ctx context.Context, caller domain.Claims, roles ...domain.Role) error {
	ok, err := a.HasAnyRole(ctx, caller, roles...)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

func (a *RoleAuthority) lookup(ctx context.Context, email string) (domain.Role, bool, error) {
	if a.cache != nil {
		role, ok, err := a.cache.Get(ctx, email)
		if err != nil {
			slog.Warn("role cache read failed", "error", err)
		} else if ok {
			return role, true, nil
		}
	}

	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get user by email: %w", err)
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, email, user.Role); err != nil {
			slog.Warn("role cache write failed", "error", err)
		}
	}
	return user.Role, true, nil
}
