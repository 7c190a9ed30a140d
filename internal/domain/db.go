package domain

import "context"

// Database defines lifecycle operations for the underlying document store.
// Each implementation (SQLite, Postgres) owns its own migration files, so
// the backend is swappable behind the repository interfaces.
type Database interface {
	Migrate(ctx context.Context) error
	Users() UserRepository
	Results() ResultRepository
	Close() error
}
