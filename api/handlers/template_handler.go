// api/handlers/template_handler.go
package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nlortiz02/DataRush/api/models"
	"github.com/nlortiz02/DataRush/config"
	"github.com/nlortiz02/DataRush/internal/core"
	"github.com/nlortiz02/DataRush/internal/storage"
	"github.com/nlortiz02/DataRush/internal/xlsx"
)

// TemplateHandler holds dependencies for spreadsheet template handlers.
type TemplateHandler struct {
	DB  *sql.DB
	Cfg *config.Config
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(db *sql.DB, cfg *config.Config) *TemplateHandler {
	return &TemplateHandler{
		DB:  db,
		Cfg: cfg,
	}
}

// DownloadTemplate serves a one-row header workbook for the table's live
// columns. Any failure degrades to an empty workbook so the download link
// never errors out in the browser.
func (h *TemplateHandler) DownloadTemplate(c *gin.Context) {
	tableName := c.Query("tableName")
	if tableName == "" {
		tableName = "Plantilla"
	}

	serve := func(payload []byte) {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", tableName+".xlsx"))
		c.Data(http.StatusOK, xlsx.ContentType, payload)
	}

	if !core.IsValidIdentifier(tableName) {
		customLog.Warnf("Handler: DownloadTemplate rejected invalid table name %q", tableName)
		serve(xlsx.EmptyWorkbook("Plantilla"))
		return
	}

	columns, err := storage.TableColumns(c.Request.Context(), h.DB, tableName)
	if err != nil {
		customLog.Warnf("Handler: DownloadTemplate falling back to empty workbook for '%s': %v", tableName, err)
		serve(xlsx.EmptyWorkbook(tableName))
		return
	}

	payload, err := xlsx.BuildTemplate(tableName, columns)
	if err != nil {
		customLog.Warnf("Handler: DownloadTemplate failed to build workbook for '%s': %v", tableName, err)
		serve(xlsx.EmptyWorkbook(tableName))
		return
	}

	customLog.Printf("Handler: Serving template for table '%s' (%d column(s))", tableName, len(columns))
	serve(payload)
}

// UploadExcel imports the rows of an uploaded workbook into an existing
// table. The header row must match the table's columns; the id column is
// never imported.
func (h *TemplateHandler) UploadExcel(c *gin.Context) {
	tableName := c.PostForm("tableName")
	fileHeader, err := c.FormFile("file")
	if tableName == "" || err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.SuccessResponse{Success: false, Error: "Datos incompletos."})
		return
	}
	if !core.IsValidIdentifier(tableName) {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.SuccessResponse{Success: false, Error: "Invalid table name."})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		customLog.Warnf("Handler: UploadExcel failed to open upload: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.SuccessResponse{Success: false, Error: "Error al importar."})
		return
	}
	defer file.Close()

	header, rows, err := xlsx.ParseRows(file)
	if err != nil {
		customLog.Warnf("Handler: UploadExcel failed to parse workbook for '%s': %v", tableName, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.SuccessResponse{Success: false, Error: "Error al importar."})
		return
	}

	ctx := c.Request.Context()
	liveColumns, err := storage.TableColumns(ctx, h.DB, tableName)
	if err != nil {
		customLog.Warnf("Handler: UploadExcel schema lookup failed for '%s': %v", tableName, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.SuccessResponse{Success: false, Error: "Error al importar."})
		return
	}

	// Header columns must exist in the live schema; the id column is omitted
	// on insert so autoincrement assigns it.
	live := make(map[string]string, len(liveColumns))
	for _, col := range liveColumns {
		live[strings.ToLower(col)] = col
	}
	insertColumns := make([]string, 0, len(header))
	keepIdx := make([]int, 0, len(header))
	for i, col := range header {
		lower := strings.ToLower(strings.TrimSpace(col))
		if lower == "" || lower == "id" {
			continue
		}
		liveName, ok := live[lower]
		if !ok {
			customLog.Warnf("Handler: UploadExcel header column %q not in table '%s'", col, tableName)
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.SuccessResponse{Success: false, Error: "Error al importar."})
			return
		}
		insertColumns = append(insertColumns, liveName)
		keepIdx = append(keepIdx, i)
	}

	// Project each data row onto the kept header positions so values stay
	// aligned after dropping the id column.
	projected := make([][]string, 0, len(rows))
	for _, row := range rows {
		out := make([]string, len(keepIdx))
		for j, idx := range keepIdx {
			if idx < len(row) {
				out[j] = row[idx]
			}
		}
		projected = append(projected, out)
	}

	inserted, err := storage.ImportRows(ctx, h.DB, tableName, insertColumns, projected)
	if err != nil {
		customLog.Warnf("Handler: UploadExcel import failed for '%s': %v", tableName, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.SuccessResponse{Success: false, Error: "Error al importar."})
		return
	}

	customLog.Printf("Handler: Imported %d row(s) into table '%s'", inserted, tableName)
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
