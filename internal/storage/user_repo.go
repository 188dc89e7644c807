// internal/storage/user_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nlortiz02/DataRush/internal/domain"
)

// Specific errors for user lookups
var (
	ErrUserNotFound = errors.New("user not found")
)

// FindUserByLogin retrieves a user matching the identifier case-insensitively
// against either the username or the document number. The users table is
// external; this is the only query this service runs against it.
func FindUserByLogin(ctx context.Context, db *sql.DB, identifier string) (*domain.User, error) {
	sqlStatement := `SELECT usuario, COALESCE(Nrodocumento, ''), contraseña, rol, status
		FROM users
		WHERE LOWER(usuario) = LOWER(?) OR LOWER(Nrodocumento) = LOWER(?)
		LIMIT 1`
	row := db.QueryRowContext(ctx, sqlStatement, identifier, identifier)

	var user domain.User
	var status int64
	err := row.Scan(&user.Username, &user.DocumentID, &user.PasswordHash, &user.Role, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		customLog.Warnf("Storage: Failed to find user by login %q: %v", identifier, err)
		return nil, fmt.Errorf("database error finding user: %w", err)
	}
	user.Active = status != 0
	return &user, nil
}

// CreateUser inserts a user with the given password hash. Used by the
// provisioning path and tests; production credentials come from outside.
func CreateUser(ctx context.Context, db *sql.DB, username, document, passwordHash, role string, active bool) error {
	status := 0
	if active {
		status = 1
	}
	sqlStatement := `INSERT INTO users (usuario, Nrodocumento, contraseña, rol, status) VALUES (?, ?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, sqlStatement, username, document, passwordHash, role, status); err != nil {
		customLog.Warnf("Storage: Failed to insert user %s: %v", username, err)
		return fmt.Errorf("database error during user creation: %w", err)
	}
	return nil
}
