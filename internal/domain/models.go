// internal/domain/models.go
package domain

// User defines the structure of a row in the external users table.
// This service only ever reads it.
type User struct {
	Username     string
	DocumentID   string
	PasswordHash string
	Role         string
	Active       bool
}

// RegisteredTable is one catalog entry in tablas_creadas.
type RegisteredTable struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

// Column describes a single column of a user-defined table.
type Column struct {
	Name string
	Type string
}
