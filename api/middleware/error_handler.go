// api/middleware/error_handler.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10" // Import validator for binding errors

	"github.com/nlortiz02/DataRush/internal/auth"
	"github.com/nlortiz02/DataRush/internal/logger"
	"github.com/nlortiz02/DataRush/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

// ErrorHandler creates a Gin middleware for centralized error handling.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request using subsequent handlers
		c.Next()

		if len(c.Errors) == 0 {
			return // No errors, nothing to do
		}

		// We only handle the last error for the response.
		err := c.Errors.Last().Err
		customLog.Printf("[ErrorHandler] Detected error: %v | Type: %T", err, err)

		// --- Map error to HTTP status code and user message ---
		var statusCode int
		var userMessage string

		if errors.Is(err, storage.ErrTableNotFound) || errors.Is(err, storage.ErrUserNotFound) {
			statusCode = http.StatusNotFound
			userMessage = err.Error()
		} else if errors.Is(err, storage.ErrTableExists) {
			statusCode = http.StatusConflict
			userMessage = "El nombre de la tabla ya está en uso."
		} else if errors.Is(err, auth.ErrInvalidCredentials) {
			// Unknown user, wrong password and disabled account all collapse
			// into this one, so nothing leaks about which check failed.
			statusCode = http.StatusUnauthorized
			userMessage = "Credenciales inválidas"
		} else if errors.Is(err, auth.ErrTokenMalformed) ||
			errors.Is(err, auth.ErrTokenInvalid) ||
			errors.Is(err, auth.ErrTokenClaimsInvalid) ||
			errors.Is(err, auth.ErrTokenUserMismatch) ||
			errors.Is(err, auth.ErrUnexpectedSigningMethod) {
			statusCode = http.StatusUnauthorized
			userMessage = "Invalid or malformed authentication token."
		} else if errors.Is(err, auth.ErrTokenExpired) {
			statusCode = http.StatusUnauthorized
			userMessage = "Authentication token has expired."
		} else if validationErrs, ok := err.(validator.ValidationErrors); ok {
			// Handle validation errors from c.ShouldBindJSON
			statusCode = http.StatusBadRequest
			userMessage = "Validation failed. Please check your input."
			for _, fe := range validationErrs {
				customLog.Printf("Validation Error: Field %s failed on %s", fe.Field(), fe.Tag())
			}
		} else if errors.Is(err, auth.ErrBadRequest) ||
			errors.Is(err, storage.ErrColumnMismatch) ||
			errors.Is(err, storage.ErrTypeMismatch) {
			statusCode = http.StatusBadRequest
			userMessage = err.Error()
		} else {
			statusCode = http.StatusInternalServerError
			userMessage = "An unexpected internal server error occurred."
			customLog.Printf("Unhandled error type: %T, Error: %v", err, err)
		}

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(statusCode, gin.H{"error": userMessage})
		} else {
			customLog.Printf("[ErrorHandler] Warning: Response already written before handling error.")
		}
	}
}
