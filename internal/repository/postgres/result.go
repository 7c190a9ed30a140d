package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msomdec/result-processing/internal/domain"
	"github.com/msomdec/result-processing/internal/repository/document"
)

type resultRepo struct {
	pool *pgxpool.Pool
}

const resultColumns = `id::text, document::text, created_at, updated_at`

func (r *resultRepo) Create(ctx context.Context, result *domain.Result) error {
	doc, err := document.Encode(result.Document)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	if err := r.pool.QueryRow(ctx,
		`INSERT INTO results (id, document) VALUES ($1::uuid, $2::jsonb)
		 RETURNING created_at, updated_at`,
		id, doc,
	).Scan(&result.CreatedAt, &result.UpdatedAt); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	result.ID = id
	return nil
}

func (r *resultRepo) GetByID(ctx context.Context, id string) (*domain.Result, error) {
	result, err := scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM results WHERE id = $1::uuid`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return result, nil
}

func (r *resultRepo) List(ctx context.Context) ([]domain.Result, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+resultColumns+` FROM results ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := []domain.Result{}
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, *result)
	}
	return results, rows.Err()
}

func (r *resultRepo) Update(ctx context.Context, id string, patch map[string]any) (domain.UpdateResult, error) {
	var out domain.UpdateResult
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var raw string
		err := tx.QueryRow(ctx,
			`SELECT document::text FROM results WHERE id = $1::uuid FOR UPDATE`, id,
		).Scan(&raw)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("load result: %w", err)
		}
		out.MatchedCount = 1

		current, err := document.Decode([]byte(raw))
		if err != nil {
			return err
		}
		merged, changed, err := domain.ApplyPatch(current, patch)
		if err != nil {
			return fmt.Errorf("apply patch: %w", err)
		}
		if !changed {
			return nil
		}

		doc, err := document.Encode(merged)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE results SET document = $2::jsonb, updated_at = now() WHERE id = $1::uuid`,
			id, doc,
		); err != nil {
			return fmt.Errorf("update result: %w", err)
		}
		out.ModifiedCount = 1
		return nil
	})
	if err != nil {
		return domain.UpdateResult{}, err
	}
	return out, nil
}

func scanResult(row pgx.Row) (*domain.Result, error) {
	var (
		result domain.Result
		raw    string
	)
	if err := row.Scan(&result.ID, &raw, &result.CreatedAt, &result.UpdatedAt); err != nil {
		return nil, err
	}
	doc, err := document.Decode([]byte(raw))
	if err != nil {
		return nil, err
	}
	result.Document = doc
	return &result, nil
}
