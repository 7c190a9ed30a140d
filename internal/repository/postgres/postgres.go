// Package postgres stores users and result documents in PostgreSQL using
// JSONB columns for the free-form parts of each record.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/msomdec/result-processing/internal/domain"
	"github.com/msomdec/result-processing/internal/repository/migrations"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// DB wraps the shared connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a connection pool for dsn and verifies it with a ping.
func New(ctx context.Context, dsn string) (*DB, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Migrate applies the embedded schema files through a database/sql view of
// the pool.
func (d *DB) Migrate(ctx context.Context) error {
	sub, err := fs.Sub(schemaFS, "schema")
	if err != nil {
		return fmt.Errorf("open schema dir: %w", err)
	}
	sqlDB := stdlib.OpenDBFromPool(d.Pool)
	defer sqlDB.Close()
	return migrations.Run(ctx, sqlDB, sub, migrations.Postgres)
}

func (d *DB) Close() error {
	d.Pool.Close()
	return nil
}

func (d *DB) Users() domain.UserRepository {
	return &userRepo{pool: d.Pool}
}

func (d *DB) Results() domain.ResultRepository {
	return &resultRepo{pool: d.Pool}
}
