// api/handlers/auth_handler.go
package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nlortiz02/DataRush/api/models"
	"github.com/nlortiz02/DataRush/config"
	"github.com/nlortiz02/DataRush/internal/auth"
	"github.com/nlortiz02/DataRush/internal/logger"
	"github.com/nlortiz02/DataRush/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

// AuthHandler holds dependencies for authentication handlers.
type AuthHandler struct {
	DB  *sql.DB        // Database connection pool
	Cfg *config.Config // Application configuration
}

// NewAuthHandler creates a new AuthHandler with dependencies.
func NewAuthHandler(db *sql.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		DB:  db,
		Cfg: cfg,
	}
}

// Login verifies credentials against the external users table and issues a
// session token. Unknown user, wrong password and disabled account all
// produce the same generic 401.
func (h *AuthHandler) Login(c *gin.Context) {
	if h.Cfg.JWTSecret == "" {
		customLog.Warnf("Login rejected: JWT secret is not configured")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Error de configuración del servidor"})
		return
	}

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("Login binding error: %v", err)
		_ = c.Error(err) // Let middleware map to 400
		return
	}

	user, err := storage.FindUserByLogin(c.Request.Context(), h.DB, req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Same response as a bad password: no user-enumeration signal.
			_ = c.Error(auth.ErrInvalidCredentials)
			return
		}
		customLog.Warnf("Login lookup failed for %q: %v", req.Username, err)
		_ = c.Error(err)
		return
	}

	if !user.Active {
		customLog.Warnf("Login attempt for disabled account %q", user.Username)
		_ = c.Error(auth.ErrInvalidCredentials)
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		customLog.Warnf("Login attempt failed for %q: invalid password", user.Username)
		_ = c.Error(auth.ErrInvalidCredentials)
		return
	}

	tokenString, err := auth.GenerateJWT(user.Username, user.Role, h.Cfg.JWTSecret, h.Cfg.JWTExpiration)
	if err != nil {
		customLog.Warnf("Failed to generate JWT for user %s: %v", user.Username, err)
		_ = c.Error(err)
		return
	}

	customLog.Printf("User %s logged in successfully", user.Username)
	c.JSON(http.StatusOK, models.LoginResponse{
		Token:    tokenString,
		Role:     user.Role,
		Username: user.Username, // canonical casing from the credential store
	})
}

// VerifyToken checks that a credential is still valid and was issued to the
// supplied identity marker. The response keeps the legacy {valid, message}
// shape, so this handler answers directly instead of deferring to the
// error-mapping middleware.
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	var req models.VerifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.VerifyTokenResponse{
			Valid:   false,
			Message: "Token and username are required",
		})
		return
	}

	if err := auth.VerifyForUser(req.Token, req.Username, h.Cfg.JWTSecret); err != nil {
		message := "Invalid or expired token"
		if errors.Is(err, auth.ErrTokenUserMismatch) {
			message = "Invalid token for user"
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.VerifyTokenResponse{
			Valid:   false,
			Message: message,
		})
		return
	}

	c.JSON(http.StatusOK, models.VerifyTokenResponse{Valid: true})
}
