// internal/storage/schema_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/nlortiz02/DataRush/internal/domain"
)

// Specific errors for live-schema and import operations
var (
	ErrColumnMismatch      = errors.New("columns do not match table schema")
	ErrTypeMismatch        = errors.New("datatype mismatch")
	ErrConstraintViolation = errors.New("constraint violation")
)

// TableExists reports whether a table with the given name is present in the
// live schema. tableName must be pre-validated by the caller.
func TableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var name string
	query := `SELECT name FROM sqlite_master WHERE type='table' AND name = ? LIMIT 1`
	err := db.QueryRowContext(ctx, query, tableName).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		customLog.Warnf("Storage: Error checking existence of table '%s': %v", tableName, err)
		return false, fmt.Errorf("database error checking table: %w", err)
	}
	return true, nil
}

// CreateTable builds and executes the CREATE TABLE statement. Every name in
// columns must already have passed IsValidIdentifier and type normalization;
// the identity column is always synthesized here, never caller-supplied.
func CreateTable(ctx context.Context, db *sql.DB, tableName string, columns []domain.Column) error {
	columnDefs := make([]string, 0, len(columns)+1)
	columnDefs = append(columnDefs, "id INTEGER PRIMARY KEY AUTOINCREMENT")
	for _, col := range columns {
		columnDefs = append(columnDefs, fmt.Sprintf("%s %s", col.Name, col.Type))
	}

	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);",
		tableName,
		strings.Join(columnDefs, ", "),
	)
	customLog.Printf("Storage: Executing schema SQL: %s", createSQL)

	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		customLog.Warnf("Storage: Failed to execute CREATE TABLE: %v\nSQL: %s", err, createSQL)
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// DropTable removes a table from the live schema. Dropping an absent table
// is a no-op.
func DropTable(ctx context.Context, db *sql.DB, tableName string) error {
	dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s;", tableName) // tableName pre-validated
	if _, err := db.ExecContext(ctx, dropSQL); err != nil {
		customLog.Warnf("Storage: Failed to drop table '%s': %v", tableName, err)
		return fmt.Errorf("failed to drop table: %w", err)
	}
	return nil
}

// TruncateTable deletes every row of a table, leaving its schema and its
// registry entry untouched. Truncating an absent table is a no-op.
func TruncateTable(ctx context.Context, db *sql.DB, tableName string) error {
	deleteSQL := fmt.Sprintf("DELETE FROM %s;", tableName) // tableName pre-validated
	if _, err := db.ExecContext(ctx, deleteSQL); err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil
		}
		customLog.Warnf("Storage: Failed to truncate table '%s': %v", tableName, err)
		return fmt.Errorf("failed to truncate table: %w", err)
	}
	return nil
}

// TableColumns retrieves the ordered column names of a live table.
func TableColumns(ctx context.Context, db *sql.DB, tableName string) ([]string, error) {
	pragmaSQL := fmt.Sprintf("PRAGMA table_info(%s);", tableName) // tableName pre-validated
	rows, err := db.QueryContext(ctx, pragmaSQL)
	if err != nil {
		customLog.Warnf("Storage: Failed PRAGMA for table '%s': %v", tableName, err)
		return nil, fmt.Errorf("failed to retrieve schema: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name string
		var sqlType string
		var notnull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &sqlType, &notnull, &dfltValue, &pk); err != nil {
			customLog.Warnf("Storage: Failed scanning PRAGMA for table '%s': %v", tableName, err)
			return nil, fmt.Errorf("failed to parse schema: %w", err)
		}
		columns = append(columns, name)
	}
	if err = rows.Err(); err != nil {
		customLog.Warnf("Storage: Error iterating PRAGMA for table '%s': %v", tableName, err)
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	if len(columns) == 0 {
		return nil, ErrTableNotFound // PRAGMA yields no rows for a missing table
	}
	return columns, nil
}

// ImportRows bulk-inserts spreadsheet rows into a table. columns is the
// insert column list (id excluded); each row must have at most len(columns)
// values, shorter rows are padded with NULL.
func ImportRows(ctx context.Context, db *sql.DB, tableName string, columns []string, rows [][]string) (int64, error) {
	if len(columns) == 0 {
		return 0, ErrColumnMismatch
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", // identifiers pre-validated
		tableName,
		strings.Join(columns, ", "),
		placeholders,
	)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		customLog.Warnf("Storage: Failed to begin import transaction: %v", err)
		return 0, fmt.Errorf("database error starting import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		customLog.Warnf("Storage: Failed to prepare import statement: %v\nSQL: %s", err, insertSQL)
		return 0, mapImportError(err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) > len(columns) {
			return 0, ErrColumnMismatch
		}
		values := make([]any, len(columns))
		for i := range columns {
			if i < len(row) && row[i] != "" {
				values[i] = row[i]
			}
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			customLog.Warnf("Storage: Failed import INSERT into '%s': %v", tableName, err)
			return 0, mapImportError(err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		customLog.Warnf("Storage: Failed to commit import into '%s': %v", tableName, err)
		return 0, fmt.Errorf("database error committing import: %w", err)
	}
	return inserted, nil
}

// mapImportError translates common SQLite failures into storage sentinels.
func mapImportError(err error) error {
	if strings.Contains(err.Error(), "no such table") {
		return ErrTableNotFound
	}
	if strings.Contains(err.Error(), "has no column named") || strings.Contains(err.Error(), "no such column") {
		return ErrColumnMismatch
	}
	if strings.Contains(err.Error(), "datatype mismatch") {
		return ErrTypeMismatch
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return ErrConstraintViolation
	}
	return fmt.Errorf("database error during import: %w", err)
}
