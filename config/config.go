package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/nlortiz02/DataRush/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// Config holds application configuration values
type Config struct {
	ServerPort    string
	JWTSecret     string
	JWTExpiration time.Duration
	DatabaseDir   string
	DatabaseFile  string
	RequireAuth   bool
}

// LoadConfig loads configuration from environment variables.
// It uses a .env file for local development if present (ignores it for production).
func LoadConfig() (*Config, error) {
	customLog.Println("Loading configuration from environment variables...")

	// Attempt to load .env file if in development environment (skip in production)
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			customLog.Warnf("Warning: Error loading .env file: %v", err)
		}
	}

	port := getEnv("SERVER_PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "") // No sensible default for secret!
	jwtExpMinutesStr := getEnv("JWT_EXPIRATION_MINUTES", "60")
	dbDir := getEnv("DATABASE_DIRECTORY", "data")
	dbFile := getEnv("DATABASE_FILE", "datarush.db")
	requireAuthStr := getEnv("REQUIRE_AUTH", "false")

	// Critical: Ensure JWT Secret is set
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable must be set")
	}

	jwtExpMinutes, err := strconv.Atoi(jwtExpMinutesStr)
	if err != nil || jwtExpMinutes <= 0 {
		customLog.Warnf("Invalid JWT_EXPIRATION_MINUTES '%s'. Using default 60m. Error: %v", jwtExpMinutesStr, err)
		jwtExpMinutes = 60
	}
	jwtExpiration := time.Minute * time.Duration(jwtExpMinutes)

	requireAuth, err := strconv.ParseBool(requireAuthStr)
	if err != nil {
		customLog.Warnf("Invalid REQUIRE_AUTH '%s'. Defaulting to false.", requireAuthStr)
		requireAuth = false
	}

	cfg := &Config{
		ServerPort:    port,
		JWTSecret:     jwtSecret,
		JWTExpiration: jwtExpiration,
		DatabaseDir:   dbDir,
		DatabaseFile:  dbFile,
		RequireAuth:   requireAuth,
	}

	customLog.Printf("Configuration loaded successfully. Port: %s, JWT Exp: %v, RequireAuth: %v", cfg.ServerPort, cfg.JWTExpiration, cfg.RequireAuth)
	return cfg, nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
