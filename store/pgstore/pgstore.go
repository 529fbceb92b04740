// Package pgstore keeps contract documents in PostgreSQL. Queries go through
// a pgx pool; the schema is managed by golang-migrate.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	mpgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/reoring/contractkit/internal/log"
	"github.com/reoring/contractkit/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a store.DocumentStore backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.DocumentStore = (*Store)(nil)

// Open connects to dsn and applies pending schema migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrateUp(pool); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info(log.CatStore, "connected to postgres store")
	return &Store{pool: pool}, nil
}

// migrateUp runs the embedded migrations over a database/sql view of the
// pool. Closing that view leaves the pool open.
func migrateUp(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("load migrations: %w", err)
	}
	drv, err := mpgx.WithInstance(db, &mpgx.Config{MigrationsTable: "contract_schema_migrations"})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", drv)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("init migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() { s.pool.Close() }

func (s *Store) Write(ctx context.Context, location string, data []byte) error {
	if err := store.ValidateLocation(location); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO contract_documents (location, content, checksum)
		VALUES ($1, $2, $3)
		ON CONFLICT (location) DO UPDATE SET
			content = EXCLUDED.content,
			checksum = EXCLUDED.checksum,
			updated_at = now()`,
		location, data, store.Checksum(data))
	if err != nil {
		return fmt.Errorf("write %s: %w", location, err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, location string) ([]byte, error) {
	if err := store.ValidateLocation(location); err != nil {
		return nil, err
	}
	var data []byte
	var sum string
	err := s.pool.QueryRow(ctx,
		`SELECT content, checksum FROM contract_documents WHERE location = $1`, location).Scan(&data, &sum)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", location, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	if err := store.VerifyChecksum(location, data, sum); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT location FROM contract_documents ORDER BY location`)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, location string) error {
	if err := store.ValidateLocation(location); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM contract_documents WHERE location = $1`, location)
	if err != nil {
		return fmt.Errorf("delete %s: %w", location, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", location, store.ErrNotFound)
	}
	return nil
}
