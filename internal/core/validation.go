// internal/core/validation.go
package core

import (
	"regexp"
	"strings"
)

// Regular expression for valid table/column names (alphanumeric + underscore)
var nameValidationRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Allowed SQLite column types for user-defined columns (uppercase keys map
// to the normalized storage type). The console's decimal option may arrive
// spelled DECIMAL or FLOAT; both store as REAL. DATE carries NUMERIC
// affinity in SQLite; spreadsheet templates treat it as text.
var AllowedColumnTypes = map[string]string{
	"TEXT":    "TEXT",
	"INTEGER": "INTEGER",
	"REAL":    "REAL",
	"DECIMAL": "REAL",
	"FLOAT":   "REAL",
	"DATE":    "DATE",
}

// Internal tables that must never be touched through the table lifecycle
// endpoints. sqlite_* names are reserved by SQLite itself.
var reservedTableNames = map[string]bool{
	"users":          true,
	"tablas_creadas": true,
}

// IsValidIdentifier checks if a string is a valid identifier (table_name or column_name).
// Applies basic format and length checks.
func IsValidIdentifier(name string) bool {
	return nameValidationRegex.MatchString(name) && len(name) > 0 && len(name) <= 64
}

// IsReservedTableName reports whether the name belongs to a system table.
func IsReservedTableName(name string) bool {
	lower := strings.ToLower(name)
	return reservedTableNames[lower] || strings.HasPrefix(lower, "sqlite_")
}

// NormalizeAndValidateType checks if a string is an allowed column type, returning the normalized uppercase version.
func NormalizeAndValidateType(colType string) (string, bool) {
	upperType := strings.ToUpper(colType)
	normalizedType, ok := AllowedColumnTypes[upperType]
	return normalizedType, ok
}
