// internal/storage/database.go
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Driver registration

	"github.com/nlortiz02/DataRush/config"
	"github.com/nlortiz02/DataRush/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// ConnectDB initializes the connection pool for the SQLite database that
// holds the users table, the registry and every user-defined table.
func ConnectDB(cfg *config.Config) (*sql.DB, error) {
	dbPath := filepath.Join(cfg.DatabaseDir, cfg.DatabaseFile)
	customLog.Printf("Storage: Initializing database: %s", dbPath)

	// Ensure the data directory exists
	if err := os.MkdirAll(cfg.DatabaseDir, 0o750); err != nil {
		customLog.Warnf("Storage: Error creating data directory '%s': %v", cfg.DatabaseDir, err)
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Foreign keys on, WAL mode and a 5s busy timeout for concurrent handlers
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		customLog.Warnf("Storage: Failed to open db '%s': %v", dbPath, err)
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// Verify connection is working
	if err = db.Ping(); err != nil {
		db.Close()
		customLog.Warnf("Storage: Failed to ping db '%s': %v", dbPath, err)
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	customLog.Println("Storage: Database connection successful.")

	// --- Ensure 'users' table exists ---
	// The credential store is owned by the provisioning side; the DDL here
	// only guarantees a fresh deployment can start and log nobody in.
	createUsersTableSQL := `
	CREATE TABLE IF NOT EXISTS users (
		usuario TEXT NOT NULL,
		Nrodocumento TEXT,
		contraseña TEXT NOT NULL,
		rol TEXT NOT NULL DEFAULT 'user',
		status INTEGER NOT NULL DEFAULT 1
	);`
	if _, err = db.Exec(createUsersTableSQL); err != nil {
		db.Close()
		customLog.Warnf("Storage: Failed to ensure users table: %v", err)
		return nil, fmt.Errorf("failed to ensure users table: %w", err)
	}
	customLog.Println("Storage: Users table ensured.")

	return db, nil
}
