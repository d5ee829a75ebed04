package migrations

// The developers table keeps skills, social links and blog references as JSON
// documents. The column type differs by driver: JSONB for PostgreSQL, JSON for
// MySQL and TEXT for SQLite.

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateDevelopers, downCreateDevelopers)
}

func upCreateDevelopers(ctx context.Context, tx *sql.Tx) error {
	jsonType := "TEXT"
	switch dialect {
	case "postgres":
		jsonType = "JSONB"
	case "mysql":
		jsonType = "JSON"
	}

	ddl := fmt.Sprintf(`CREATE TABLE developers (
    id     BIGINT       PRIMARY KEY,
    name   VARCHAR(255) NOT NULL,
    avatar TEXT         NOT NULL,
    bio    TEXT         NOT NULL,
    skills %[1]s        NOT NULL,
    social %[1]s        NOT NULL,
    blogs  %[1]s        NOT NULL
)`, jsonType)
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create developers table: %w", err)
	}
	_, err := tx.ExecContext(ctx, `CREATE INDEX idx_developers_name ON developers (name)`)
	return err
}

func downCreateDevelopers(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE developers`)
	return err
}
