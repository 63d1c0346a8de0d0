package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3" // Required by the library implementation.
)

type Database struct {
	db  *sql.DB
	log *slog.Logger
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	summariesTable = "summaries"
	// SchemaVersion is the newest migration embedded in the binary.
	SchemaVersion uint = 1
)

func New(ctx context.Context, dbPath string, log *slog.Logger) (*Database, error) {
	dbFile, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open DB file: %w", err)
	}

	version, err := migrateUp(ctx, dbFile, dbPath, log)
	if err == nil {
		err = checkSummariesTable(ctx, dbFile, dbPath, version, log)
	}
	if err != nil {
		_ = dbFile.Close()

		return nil, err
	}

	return &Database{db: dbFile, log: log}, nil
}

// migrateUp applies the embedded migrations and returns the schema version
// the history DB ends up at.
func migrateUp(ctx context.Context, dbFile *sql.DB, dbPath string, log *slog.Logger) (uint, error) {
	driver, err := sqlite3.WithInstance(dbFile, &sqlite3.Config{})
	if err != nil {
		return 0, fmt.Errorf("create sqlite3 migrate driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return 0, fmt.Errorf("create migrate instance: %w", err)
	}

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return 0, fmt.Errorf("apply history migrations: %w", upErr)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read history schema version: %w", err)
	}

	if dirty {
		return 0, fmt.Errorf("history schema version %d is dirty", version)
	}

	if version < SchemaVersion {
		return 0, fmt.Errorf("history schema version %d is older than %d", version, SchemaVersion)
	}

	msg := "History migrations are applied"
	if errors.Is(upErr, migrate.ErrNoChange) {
		msg = "History schema is up to date"
	}

	log.InfoContext(ctx, msg,
		"dbPath", dbPath,
		"version", version)

	return version, nil
}

// checkSummariesTable guards against a migrated DB whose table was dropped
// by hand, which the version table alone cannot reveal.
func checkSummariesTable(
	ctx context.Context,
	dbFile *sql.DB,
	dbPath string,
	version uint,
	log *slog.Logger,
) error {
	var rows int64

	query := `select count(*) from ` + summariesTable
	if err := dbFile.QueryRowContext(ctx, query).Scan(&rows); err != nil {
		return fmt.Errorf("check %s table (schema version %d): %w", summariesTable, version, err)
	}

	log.InfoContext(ctx, "History table is ready",
		"dbPath", dbPath,
		"table", summariesTable,
		"rows", rows)

	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}
