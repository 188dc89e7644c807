// api/handlers/table_handler.go
package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nlortiz02/DataRush/api/models"
	"github.com/nlortiz02/DataRush/config"
	"github.com/nlortiz02/DataRush/internal/core"
	"github.com/nlortiz02/DataRush/internal/domain"
	"github.com/nlortiz02/DataRush/internal/storage"
)

// TableHandler holds dependencies for table lifecycle handlers.
type TableHandler struct {
	DB  *sql.DB
	Cfg *config.Config
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(db *sql.DB, cfg *config.Config) *TableHandler {
	return &TableHandler{
		DB:  db,
		Cfg: cfg,
	}
}

// isIdentityColumn reports whether a request column is the fixed identity
// column the console synthesizes. It is rebuilt server-side, never taken
// from the request.
func isIdentityColumn(col models.ColumnDefinition) bool {
	return col.IsID || strings.EqualFold(col.Name, "id")
}

// validateColumns turns the request columns into validated definitions,
// dropping the identity column and normalizing types.
func validateColumns(reqColumns []models.ColumnDefinition) ([]domain.Column, error) {
	columns := make([]domain.Column, 0, len(reqColumns))
	seen := make(map[string]bool)
	for _, col := range reqColumns {
		if isIdentityColumn(col) {
			continue
		}
		if strings.TrimSpace(col.Name) == "" {
			return nil, errors.New("Columnas inválidas.")
		}
		if !core.IsValidIdentifier(col.Name) {
			return nil, fmt.Errorf("Invalid column name '%s'. Use only letters, digits and underscores.", col.Name)
		}
		lower := strings.ToLower(col.Name)
		if seen[lower] {
			return nil, fmt.Errorf("Duplicate column name '%s'.", col.Name)
		}
		seen[lower] = true

		normalizedType, ok := core.NormalizeAndValidateType(col.Type)
		if !ok {
			return nil, fmt.Errorf("Invalid type '%s' for column '%s'.", col.Type, col.Name)
		}
		columns = append(columns, domain.Column{Name: col.Name, Type: normalizedType})
	}
	return columns, nil
}

// CreateTable validates the definition, creates the live table and records
// it in the registry. The registry's unique constraint on the name is the
// backstop for concurrent creates.
func (h *TableHandler) CreateTable(c *gin.Context) {
	var req models.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("CreateTable binding error: %v", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, models.SuccessResponse{Success: false, Error: "Datos incompletos."})
		return
	}

	if !core.IsValidIdentifier(req.TableName) {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.SuccessResponse{
			Success: false,
			Error:   "Invalid table name. Use only alphanumeric characters and underscores (a-z, A-Z, 0-9, _), max length 64.",
		})
		return
	}
	if core.IsReservedTableName(req.TableName) {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.SuccessResponse{
			Success: false,
			Error:   fmt.Sprintf("Table name '%s' is reserved.", req.TableName),
		})
		return
	}

	columns, err := validateColumns(req.Columns)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.SuccessResponse{Success: false, Error: err.Error()})
		return
	}

	ctx := c.Request.Context()

	// Uniqueness pre-check against the live schema. Racy on its own; the
	// registry insert below catches the loser.
	exists, err := storage.TableExists(ctx, h.DB, req.TableName)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.SuccessResponse{Success: false, Error: "Error interno."})
		return
	}
	if exists {
		c.AbortWithStatusJSON(http.StatusConflict, models.SuccessResponse{Success: false, Error: "El nombre de la tabla ya está en uso."})
		return
	}

	// Register first: the UNIQUE(nombre) constraint serializes concurrent
	// creates before either touches the live schema.
	if err := storage.RegisterTable(ctx, h.DB, req.TableName); err != nil {
		if errors.Is(err, storage.ErrTableExists) {
			c.AbortWithStatusJSON(http.StatusConflict, models.SuccessResponse{Success: false, Error: "El nombre de la tabla ya está en uso."})
			return
		}
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.SuccessResponse{Success: false, Error: "Error interno."})
		return
	}

	if err := storage.CreateTable(ctx, h.DB, req.TableName, columns); err != nil {
		// Roll the catalog entry back so the registry never references a
		// table that was not created.
		if unregErr := storage.UnregisterTable(ctx, h.DB, req.TableName); unregErr != nil {
			customLog.Warnf("CreateTable: failed to roll back registry entry for '%s': %v", req.TableName, unregErr)
		}
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.SuccessResponse{Success: false, Error: "Error interno."})
		return
	}

	customLog.Printf("Handler: Successfully created table '%s' with %d user column(s)", req.TableName, len(columns))
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// ListTables returns the registry contents. Storage failures degrade to an
// empty list so the console view never breaks.
func (h *TableHandler) ListTables(c *gin.Context) {
	tables, err := storage.ListRegisteredTables(c.Request.Context(), h.DB)
	if err != nil {
		customLog.Warnf("Handler: Error listing tables, degrading to empty list: %v", err)
		c.JSON(http.StatusOK, models.ListTablesResponse{Tables: []domain.RegisteredTable{}})
		return
	}

	customLog.Printf("Handler: Retrieved %d registered table(s)", len(tables))
	c.JSON(http.StatusOK, models.ListTablesResponse{Tables: tables})
}

// DeleteTable drops the live table and removes its registry row. Idempotent:
// deleting an absent table reports success. Internal failures flatten to
// success:false after being logged.
func (h *TableHandler) DeleteTable(c *gin.Context) {
	var req models.TableNameRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TableName == "" {
		c.JSON(http.StatusOK, models.SuccessResponse{Success: false})
		return
	}
	if !core.IsValidIdentifier(req.TableName) {
		customLog.Warnf("Handler: DeleteTable rejected invalid table name %q", req.TableName)
		c.JSON(http.StatusOK, models.SuccessResponse{Success: false})
		return
	}
	if core.IsReservedTableName(req.TableName) {
		customLog.Warnf("Handler: DeleteTable rejected reserved table name %q", req.TableName)
		c.JSON(http.StatusOK, models.SuccessResponse{Success: false})
		return
	}

	ctx := c.Request.Context()
	if err := storage.DropTable(ctx, h.DB, req.TableName); err != nil {
		customLog.Warnf("Handler: Error dropping table '%s': %v", req.TableName, err)
		c.JSON(http.StatusOK, models.SuccessResponse{Success: false})
		return
	}
	if err := storage.UnregisterTable(ctx, h.DB, req.TableName); err != nil {
		customLog.Warnf("Handler: Error unregistering table '%s': %v", req.TableName, err)
		c.JSON(http.StatusOK, models.SuccessResponse{Success: false})
		return
	}

	customLog.Printf("Handler: Successfully deleted table '%s'", req.TableName)
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// TruncateTable clears every row of the live table. The schema and the
// registry entry stay untouched. Same contract as DeleteTable.
func (h *TableHandler) TruncateTable(c *gin.Context) {
	var req models.TableNameRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TableName == "" {
		c.JSON(http.StatusOK, models.SuccessResponse{Success: false})
		return
	}
	if !core.IsValidIdentifier(req.TableName) {
		customLog.Warnf("Handler: TruncateTable rejected invalid table name %q", req.TableName)
		c.JSON(http.StatusOK, models.SuccessResponse{Success: false})
		return
	}
	if core.IsReservedTableName(req.TableName) {
		customLog.Warnf("Handler: TruncateTable rejected reserved table name %q", req.TableName)
		c.JSON(http.StatusOK, models.SuccessResponse{Success: false})
		return
	}

	if err := storage.TruncateTable(c.Request.Context(), h.DB, req.TableName); err != nil {
		customLog.Warnf("Handler: Error truncating table '%s': %v", req.TableName, err)
		c.JSON(http.StatusOK, models.SuccessResponse{Success: false})
		return
	}

	customLog.Printf("Handler: Successfully truncated table '%s'", req.TableName)
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
