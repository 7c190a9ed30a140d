package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msomdec/result-processing/internal/domain"
	"github.com/msomdec/result-processing/internal/repository/document"
)

type userRepo struct {
	pool *pgxpool.Pool
}

const userColumns = `id::text, email, role, profile::text, created_at`

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	profile, err := document.Encode(user.Profile)
	if err != nil {
		return err
	}
	role := user.Role
	if role == "" {
		role = domain.RoleUser
	}

	id := uuid.NewString()
	err = r.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, role, profile)
		 VALUES ($1::uuid, $2, $3, $4::jsonb)
		 RETURNING created_at`,
		id, user.Email, string(role), profile,
	).Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	user.Role = role
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1::uuid`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	return user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	return user, nil
}

func (r *userRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY seq`)
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

func (r *userRepo) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1::uuid`, id)
	if err != nil {
		return domain.DeleteResult{}, fmt.Errorf("delete user: %w", err)
	}
	return domain.DeleteResult{DeletedCount: tag.RowsAffected()}, nil
}

func (r *userRepo) SetRole(ctx context.Context, id string, role domain.Role) (domain.UpdateResult, error) {
	var out domain.UpdateResult
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var current string
		err := tx.QueryRow(ctx,
			`SELECT role FROM users WHERE id = $1::uuid FOR UPDATE`, id,
		).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("load role: %w", err)
		}
		out.MatchedCount = 1
		if domain.Role(current) == role {
			return nil
		}

		if _, err := tx.Exec(ctx,
			`UPDATE users SET role = $2 WHERE id = $1::uuid`, id, string(role),
		); err != nil {
			return fmt.Errorf("update role: %w", err)
		}
		out.ModifiedCount = 1
		return nil
	})
	if err != nil {
		return domain.UpdateResult{}, err
	}
	return out, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
