// Package migrations embeds the goose schema migrations for each supported
// SQL dialect.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/vaultsync/internal/dbx"
	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrations embed.FS

// For returns the migration files of dialect d, rooted at ".".
func For(d dbx.Dialect) (fs.FS, error) {
	switch d {
	case dbx.Postgres:
		return fs.Sub(migrations, "postgres")
	case dbx.SQLite:
		return fs.Sub(migrations, "sqlite")
	}
	return nil, fmt.Errorf("no migrations for dialect %q", d)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Up applies every pending migration of dialect d to db.
func Up(ctx context.Context, db *sql.DB, d dbx.Dialect) error {
	fsys, err := For(d)
	if err != nil {
		return err
	}
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(d.GooseDialect()); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	goose.SetLogger(goose.NopLogger())
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
