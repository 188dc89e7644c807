// api/models/table_models.go
package models

import "github.com/nlortiz02/DataRush/internal/domain"

// --- Table Lifecycle Request/Response Structs ---

// ColumnDefinition represents a single column in a table creation request.
// The console always sends the fixed identity column first with IsID set.
type ColumnDefinition struct {
	Name string `json:"name"`
	Type string `json:"type"`
	IsID bool   `json:"isId,omitempty"`
}

// CreateTableRequest defines the structure for the create-table request body
type CreateTableRequest struct {
	TableName string             `json:"tableName" binding:"required"`
	Columns   []ColumnDefinition `json:"columns" binding:"required,min=1"`
}

// TableNameRequest is the body shared by delete-table and truncate-table
type TableNameRequest struct {
	TableName string `json:"tableName"`
}

// SuccessResponse is the legacy boolean shape of the lifecycle endpoints
type SuccessResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ListTablesResponse wraps the registry contents
type ListTablesResponse struct {
	Tables []domain.RegisteredTable `json:"tables"`
}
