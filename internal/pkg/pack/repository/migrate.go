package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var createPacksTable = map[string]string{
	DriverPostgres: `
		CREATE TABLE IF NOT EXISTS packs (
			pack_id     BIGSERIAL PRIMARY KEY,
			user_id     BIGINT NOT NULL,
			title       TEXT NOT NULL,
			name        TEXT NOT NULL,
			is_animated BOOLEAN DEFAULT FALSE
		)`,
	DriverSQLite: `
		CREATE TABLE IF NOT EXISTS packs (
			pack_id     INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     INTEGER NOT NULL,
			title       TEXT NOT NULL,
			name        TEXT NOT NULL,
			is_animated BOOLEAN DEFAULT FALSE
		)`,
}

// Migrate brings the packs table up to date. Every step is additive, rows
// created before the type column existed keep a NULL type.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	stmt, ok := createPacksTable[driver]
	if !ok {
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create packs table: %w", err)
	}

	if err := addTypeColumn(ctx, db, driver); err != nil {
		return fmt.Errorf("add type column: %w", err)
	}

	_, err := db.ExecContext(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS packs_user_id_name_key ON packs (user_id, name)`)
	if err != nil {
		return fmt.Errorf("create unique index: %w", err)
	}
	return nil
}

func addTypeColumn(ctx context.Context, db *sql.DB, driver string) error {
	if driver == DriverPostgres {
		_, err := db.ExecContext(ctx, `ALTER TABLE packs ADD COLUMN IF NOT EXISTS type INTEGER`)
		return err
	}

	// sqlite has no ADD COLUMN IF NOT EXISTS
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pragma_table_info('packs') WHERE name = 'type'`).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err = db.ExecContext(ctx, `ALTER TABLE packs ADD COLUMN type INTEGER`)
	return err
}
