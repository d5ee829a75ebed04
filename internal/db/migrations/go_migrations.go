// Package migrations holds the Go migrations whose DDL differs by driver.
package migrations

// dialect is the goose dialect of the database being migrated.
var dialect string

// SetDialect must be called before goose.Up so Go migrations emit the right
// DDL. Valid values: "sqlite3", "postgres", "mysql".
func SetDialect(d string) {
	dialect = d
}
