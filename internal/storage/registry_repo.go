// internal/storage/registry_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/nlortiz02/DataRush/internal/domain"
)

// Specific errors for registry operations
var (
	ErrTableExists   = errors.New("table name already in use")
	ErrTableNotFound = errors.New("table not found")
)

// EnsureRegistry lazily creates the tablas_creadas catalog. Every registry
// operation calls this first, so the table materializes on first use.
func EnsureRegistry(ctx context.Context, db *sql.DB) error {
	createSQL := `
	CREATE TABLE IF NOT EXISTS tablas_creadas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre TEXT NOT NULL UNIQUE
	);`
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		customLog.Warnf("Storage: Failed to ensure registry table: %v", err)
		return fmt.Errorf("failed to ensure registry table: %w", err)
	}
	return nil
}

// RegisterTable inserts a catalog row for a newly created table. The UNIQUE
// constraint on nombre is the serialization point for concurrent creates:
// the loser's insert surfaces as ErrTableExists.
func RegisterTable(ctx context.Context, db *sql.DB, tableName string) error {
	if err := EnsureRegistry(ctx, db); err != nil {
		return err
	}
	sqlStatement := `INSERT INTO tablas_creadas (nombre) VALUES (?)`
	_, err := db.ExecContext(ctx, sqlStatement, tableName)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrTableExists
		}
		customLog.Warnf("Storage: Failed to register table '%s': %v", tableName, err)
		return fmt.Errorf("database error registering table: %w", err)
	}
	return nil
}

// ListRegisteredTables returns every catalog row in insertion order.
func ListRegisteredTables(ctx context.Context, db *sql.DB) ([]domain.RegisteredTable, error) {
	if err := EnsureRegistry(ctx, db); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT id, nombre FROM tablas_creadas`)
	if err != nil {
		customLog.Warnf("Storage: Error listing registered tables: %v", err)
		return nil, fmt.Errorf("database error listing tables: %w", err)
	}
	defer rows.Close()

	tables := make([]domain.RegisteredTable, 0)
	for rows.Next() {
		var t domain.RegisteredTable
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			customLog.Warnf("Storage: Error scanning registry row: %v", err)
			return nil, fmt.Errorf("failed processing table list: %w", err)
		}
		tables = append(tables, t)
	}
	if err = rows.Err(); err != nil {
		customLog.Warnf("Storage: Error iterating registry rows: %v", err)
		return nil, fmt.Errorf("failed reading table list: %w", err)
	}
	return tables, nil
}

// UnregisterTable removes the catalog row for a table name. Removing an
// absent row is not an error.
func UnregisterTable(ctx context.Context, db *sql.DB, tableName string) error {
	if err := EnsureRegistry(ctx, db); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM tablas_creadas WHERE nombre = ?`, tableName); err != nil {
		customLog.Warnf("Storage: Failed to unregister table '%s': %v", tableName, err)
		return fmt.Errorf("database error unregistering table: %w", err)
	}
	return nil
}
