// Package localdb opens the client's durable local storage: a sqlite file
// migrated with goose on every start.
package localdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/loandesk/internal/client/migrations"
	"github.com/dmitrijs2005/loandesk/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// RunMigrations applies the embedded migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate local db: %w", err)
	}
	return nil
}

// Open creates (if needed) and migrates the sqlite file at path.
//
// A single connection is kept open: sqlite serialises writers anyway and it
// keeps transactions from racing plain statements for the file lock.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	abs, err := filex.EnsureParentDir(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", abs)
	if err != nil {
		return nil, fmt.Errorf("open local db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
