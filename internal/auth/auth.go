// internal/auth/auth.go
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/nlortiz02/DataRush/api/models"
	"github.com/nlortiz02/DataRush/internal/logger"
)

var (
	ErrBadRequest              = errors.New("bad request")
	ErrTokenMalformed          = errors.New("malformed token")
	ErrTokenExpired            = errors.New("token is expired or not valid yet")
	ErrTokenInvalid            = errors.New("invalid token")
	ErrTokenClaimsInvalid      = errors.New("invalid token claims")
	ErrTokenUserMismatch       = errors.New("token does not belong to user")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrUnexpectedSigningMethod = errors.New("unexpected token signing method")
	customLog                  = logger.NewLogger()
)

// --- Password Utilities ---

// HashPassword produces the legacy sha256 hex digest the users table stores.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CheckPassword compares a plaintext password with a stored hash. Hashes
// with a bcrypt prefix are verified with bcrypt (newly provisioned users);
// everything else is compared against the sha256 hex digest.
func CheckPassword(password, storedHash string) bool {
	if strings.HasPrefix(storedHash, "$2a$") || strings.HasPrefix(storedHash, "$2b$") || strings.HasPrefix(storedHash, "$2y$") {
		err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password))
		if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			customLog.Warnf("Unexpected error comparing bcrypt hash: %v", err)
		}
		return err == nil
	}
	digest := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(storedHash)) == 1
}

// --- JWT Utilities ---

// GenerateJWT creates a signed JWT string carrying the username and role.
func GenerateJWT(username, role, jwtSecret string, jwtExpiration time.Duration) (string, error) {
	claims := models.SessionClaims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "datarush-backend",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		customLog.Warnf("Error signing JWT for user %s: %v", username, err)
		return "", fmt.Errorf("failed to generate token")
	}

	return signedToken, nil
}

// ValidateJWT parses and validates a JWT string, returning its claims if valid.
func ValidateJWT(tokenString, jwtSecret string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			customLog.Warnf("ValidateJWT: Unexpected signing method: %v", token.Header["alg"])
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedSigningMethod, token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})

	// Map library errors to our defined errors
	if err != nil {
		customLog.Warnf("ValidateJWT: Token parsing error: %v", err)
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenExpired
		case errors.Is(err, ErrUnexpectedSigningMethod):
			return nil, err
		default:
			return nil, ErrTokenInvalid
		}
	}

	if !token.Valid {
		customLog.Warnf("ValidateJWT: Invalid token marked by library")
		return nil, ErrTokenInvalid
	}

	if claims.Username == "" {
		customLog.Warnf("ValidateJWT: Username missing in token claims")
		return nil, ErrTokenClaimsInvalid
	}

	return claims, nil
}

// VerifyForUser validates the token and checks that it was issued to the
// given username. A valid token presented with a different identity marker
// is treated the same as an invalid one.
func VerifyForUser(tokenString, username, jwtSecret string) error {
	claims, err := ValidateJWT(tokenString, jwtSecret)
	if err != nil {
		return err
	}
	if claims.Username != username {
		customLog.Warnf("VerifyForUser: token subject %q does not match supplied username %q", claims.Username, username)
		return ErrTokenUserMismatch
	}
	return nil
}
