// api/models/auth_models.go
package models

import "github.com/golang-jwt/jwt/v5"

// --- Auth Request/Response Structs ---

// LoginRequest defines the structure for the login request body.
// The identifier field accepts either the username or the document number.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse defines the structure for the login response body
type LoginResponse struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	Username string `json:"username"`
}

// VerifyTokenRequest defines the structure for the verify-token request body
type VerifyTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Username string `json:"username" binding:"required"`
}

// VerifyTokenResponse defines the structure for the verify-token response body
type VerifyTokenResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// --- JWT Claims ---

// SessionClaims includes standard claims plus the username and role issued at login
type SessionClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
