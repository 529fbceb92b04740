// Package sqlitestore keeps contract documents in a SQLite database. The
// schema is managed by golang-migrate from embedded SQL files.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	msqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/reoring/contractkit/internal/log"
	"github.com/reoring/contractkit/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a store.DocumentStore backed by SQLite.
type Store struct {
	db *sql.DB
}

var _ store.DocumentStore = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies pending
// schema migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	log.Debug(log.CatStore, "opening sqlite store", "path", path)
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// migrateUp applies the embedded migrations. The migrate instance is not
// closed: its database driver would close db along with it.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	drv, err := msqlite.WithInstance(db, &msqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	v, _, _ := m.Version()
	log.Debug(log.CatStore, "sqlite schema ready", "version", v)
	return nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Write(ctx context.Context, location string, data []byte) error {
	if err := store.ValidateLocation(location); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (location, content, checksum, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(location) DO UPDATE SET
			content = excluded.content,
			checksum = excluded.checksum,
			updated_at = excluded.updated_at`,
		location, data, store.Checksum(data), now, now)
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
	err := s.db.QueryRowContext(ctx,
		`SELECT content, checksum FROM documents WHERE location = ?`, location).Scan(&data, &sum)
	if errors.Is(err, sql.ErrNoRows) {
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
	rows, err := s.db.QueryContext(ctx, `SELECT location FROM documents ORDER BY location`)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, location string) error {
	if err := store.ValidateLocation(location); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE location = ?`, location)
	if err != nil {
		return fmt.Errorf("delete %s: %w", location, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", location, store.ErrNotFound)
	}
	return nil
}
