package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/msomdec/result-processing/internal/domain"
)

// CreateUserOutcome is the result of a create-if-absent request. Exactly
// one of AlreadyExists or Inserted is meaningful.
type CreateUserOutcome struct {
	AlreadyExists bool
	Inserted      domain.InsertResult
}

// newUserInput carries the fields validated on creation.
type newUserInput struct {
	Email string `validate:"required,email"`
	Role  string `validate:"omitempty,oneof=user manager admin"`
}

// UserDirectory manages user records keyed by email and id.
type UserDirectory struct {
	users    domain.UserRepository
	cache    RoleCache
	validate *validator.Validate
}

// NewUserDirectory creates a UserDirectory. cache may be nil; when set,
// role changes and deletes invalidate the affected email.
func NewUserDirectory(users domain.UserRepository, cache RoleCache) *UserDirectory {
	return &UserDirectory{
		users:    users,
		cache:    cache,
		validate: validator.New(),
	}
}

// List returns every user record in store order.
func (d *UserDirectory) List(ctx context.Context) ([]domain.User, error) {
	users, err := d.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Create inserts user unless a record with the same email exists. An
// existing record is reported through the outcome, never overwritten.
func (d *UserDirectory) Create(ctx context.Context, user *domain.User) (CreateUserOutcome, error) {
	if err := d.validate.Struct(newUserInput{Email: user.Email, Role: string(user.Role)}); err != nil {
		return CreateUserOutcome{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, describeValidation(err))
	}

	_, err := d.users.GetByEmail(ctx, user.Email)
	if err == nil {
		return CreateUserOutcome{AlreadyExists: true}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return CreateUserOutcome{}, fmt.Errorf("get user by email: %w", err)
	}

	if err := d.users.Create(ctx, user); err != nil {
		// Lost a race against a concurrent create for the same email.
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return CreateUserOutcome{AlreadyExists: true}, nil
		}
		return CreateUserOutcome{}, fmt.Errorf("create user: %w", err)
	}

	return CreateUserOutcome{Inserted: domain.InsertResult{InsertedID: user.ID}}, nil
}

// Delete removes the user with id. A missing record yields a zero count.
func (d *UserDirectory) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	if err := validateID(id); err != nil {
		return domain.DeleteResult{}, err
	}

	email := d.emailForID(ctx, id)
	res, err := d.users.Delete(ctx, id)
	if err != nil {
		return domain.DeleteResult{}, fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount > 0 {
		d.invalidate(ctx, email)
	}
	return res, nil
}

// SetRole replaces the role of the user with id. Applying the role the
// user already holds matches without modifying.
func (d *UserDirectory) SetRole(ctx context.Context, id string, role domain.Role) (domain.UpdateResult, error) {
	if err := validateID(id); err != nil {
		return domain.UpdateResult{}, err
	}
	if _, err := domain.ParseRole(string(role)); err != nil {
		return domain.UpdateResult{}, err
	}

	res, err := d.users.SetRole(ctx, id, role)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("set role: %w", err)
	}
	if res.ModifiedCount > 0 {
		d.invalidate(ctx, d.emailForID(ctx, id))
	}
	return res, nil
}

// emailForID resolves the email used as the role cache key. Returns "" when
// no cache is configured or the user cannot be loaded.
func (d *UserDirectory) emailForID(ctx context.Context, id string) string {
	if d.cache == nil {
		return ""
	}
	user, err := d.users.GetByID(ctx, id)
	if err != nil {
		return ""
	}
	return user.Email
}

func (d *UserDirectory) invalidate(ctx context.Context, email string) {
	if d.cache == nil || email == "" {
		return
	}
	if err := d.cache.Invalidate(ctx, email); err != nil {
		slog.Warn("role cache invalidation failed", "email", email, "error", err)
	}
}

// validateID rejects identifiers that could never have been generated by
// the store.
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed id %q", domain.ErrInvalidInput, id)
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Email":
		return "a valid email is required"
	case "Role":
		return "role must be one of user, manager, admin"
	}
	return fe.Error()
}
