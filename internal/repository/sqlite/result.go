package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/result-processing/internal/domain"
	"github.com/msomdec/result-processing/internal/repository/document"
)

// resultRepo implements domain.ResultRepository using SQLite. Documents
// are stored as JSON text.
type resultRepo struct {
	db *sql.DB
}

// NewResultRepository creates a new SQLite-backed result repository.
func NewResultRepository(db *DB) domain.ResultRepository {
	return &resultRepo{db: db.SqlDB}
}

func (r *resultRepo) Create(ctx context.Context, result *domain.Result) error {
	doc, err := document.Encode(result.Document)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO results (id, document, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, doc, now, now,
	); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	result.ID = id
	result.CreatedAt = now
	result.UpdatedAt = now
	return nil
}

func (r *resultRepo) GetByID(ctx context.Context, id string) (*domain.Result, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, document, created_at, updated_at FROM results WHERE id = ?`, id)
	result, err := scanResult(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return result, nil
}

func (r *resultRepo) List(ctx context.Context) ([]domain.Result, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, document, created_at, updated_at FROM results ORDER BY rowid`)
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
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT document FROM results WHERE id = ?`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UpdateResult{}, nil
		}
		return domain.UpdateResult{}, fmt.Errorf("load result: %w", err)
	}

	current, err := document.Decode([]byte(raw))
	if err != nil {
		return domain.UpdateResult{}, err
	}
	merged, changed, err := domain.ApplyPatch(current, patch)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("apply patch: %w", err)
	}
	if !changed {
		return domain.UpdateResult{MatchedCount: 1}, nil
	}

	doc, err := document.Encode(merged)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE results SET document = ?, updated_at = ? WHERE id = ?`,
		doc, time.Now().UTC(), id,
	); err != nil {
		return domain.UpdateResult{}, fmt.Errorf("update result: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.UpdateResult{}, fmt.Errorf("commit: %w", err)
	}
	return domain.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func scanResult(row rowScanner) (*domain.Result, error) {
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
