package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3" // Registers the "sqlite3" driver.

	"github.com/leofalp/sitesummarizer/providers/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is the settings scope backed by a SQLite file.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

var _ store.KV = (*Store)(nil)

// New opens (creating if needed) the database at dbPath and applies pending
// migrations.
func New(ctx context.Context, dbPath string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open DB file: %w", err)
	}
	// SQLite has a single writer; serialize access through one connection
	db.SetMaxOpenConns(1)

	if err := migrateUp(ctx, db, dbPath, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, log: log}, nil
}

func migrateUp(ctx context.Context, db *sql.DB, dbPath string, log *slog.Logger) error {
	dbInstance, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create DB instance: %w", err)
	}

	srcInstance, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create source instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcInstance, "sqlite3", dbInstance)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	migrateErr := m.Up()

	fields := []any{"dbPath", dbPath}
	version, dirty, versionErr := m.Version()
	if versionErr == nil {
		fields = append(fields, "version", version, "dirty", dirty)
	} else if !errors.Is(versionErr, migrate.ErrNilVersion) {
		log.WarnContext(ctx, "Failed to fetch migration version", "error", versionErr, "dbPath", dbPath)
	}

	if migrateErr != nil {
		if !errors.Is(migrateErr, migrate.ErrNoChange) {
			return fmt.Errorf("apply migrations: %w", migrateErr)
		}
		log.DebugContext(ctx, "No migrations to apply", fields...)
		return nil
	}

	log.InfoContext(ctx, "Settings DB is migrated", fields...)
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	query := "select key, value from settings where key in (" + placeholders + ")"

	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return out, nil
}

// Set upserts all values in one transaction.
func (s *Store) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `insert into settings (key, value, updated_at) values (?, ?, current_timestamp)
on conflict(key) do update set value = excluded.value, updated_at = excluded.updated_at`

	for key, value := range values {
		if _, err := tx.ExecContext(ctx, query, key, value); err != nil {
			return fmt.Errorf("set %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, "delete from settings where key = ?", key); err != nil {
			return fmt.Errorf("remove %q: %w", key, err)
		}
	}
	return nil
}
