package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/joestump/devhub/internal/db/migrations"
)

//go:embed migrations
var migrationFS embed.FS

// Migrate applies every pending DevHub schema migration. Serve, seed and
// migrate all call it before touching the stores.
func Migrate(ctx context.Context, conn *sqlx.DB, driver string) error {
	b, err := lookup(driver)
	if err != nil {
		return err
	}
	if err := goose.SetDialect(b.dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	migrations.SetDialect(b.dialect)

	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)

	before, err := goose.GetDBVersionContext(ctx, conn.DB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if err := goose.UpContext(ctx, conn.DB, "."); err != nil {
		return fmt.Errorf("migrate devhub schema: %w", err)
	}
	after, err := goose.GetDBVersionContext(ctx, conn.DB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if after != before {
		log.Printf("db: devhub schema migrated from version %d to %d", before, after)
	}
	return nil
}
