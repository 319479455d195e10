package database

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema_postgres.sql
var schemaPostgres string

//go:embed schema_sqlite.sql
var schemaSQLite string

// Migrate applies the schema for the client's dialect. All statements use
// IF NOT EXISTS so repeated runs are safe.
func (c *Client) Migrate(ctx context.Context) error {
	schema := schemaPostgres
	if c.driver == DriverSQLite {
		schema = schemaSQLite
	}

	if _, err := c.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
