package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/result-processing/internal/domain"
	"github.com/msomdec/result-processing/internal/repository/document"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.SqlDB}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	profile, err := document.Encode(user.Profile)
	if err != nil {
		return err
	}
	role := user.Role
	if role == "" {
		role = domain.RoleUser
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, role, profile, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, user.Email, role, profile, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	user.Role = role
	user.CreatedAt = now
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, role, profile, created_at FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, role, profile, created_at FROM users WHERE email = ?`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, role, profile, created_at FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *UserRepository) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return domain.DeleteResult{}, fmt.Errorf("delete user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return domain.DeleteResult{}, fmt.Errorf("rows affected: %w", err)
	}
	return domain.DeleteResult{DeletedCount: n}, nil
}

func (r *UserRepository) SetRole(ctx context.Context, id string, role domain.Role) (domain.UpdateResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT role FROM users WHERE id = ?`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UpdateResult{}, nil
		}
		return domain.UpdateResult{}, fmt.Errorf("query role: %w", err)
	}
	if domain.Role(current) == role {
		return domain.UpdateResult{MatchedCount: 1}, nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id); err != nil {
		return domain.UpdateResult{}, fmt.Errorf("update role: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.UpdateResult{}, fmt.Errorf("commit: %w", err)
	}
	return domain.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user    domain.User
		role    string
		profile string
	)
	if err := row.Scan(&user.ID, &user.Email, &role, &profile, &user.CreatedAt); err != nil {
		return nil, err
	}
	doc, err := document.Decode([]byte(profile))
	if err != nil {
		return nil, err
	}
	user.Role = domain.Role(role)
	user.Profile = doc
	return &user, nil
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	var liteErr *msqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
