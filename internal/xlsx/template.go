// internal/xlsx/template.go
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/nlortiz02/DataRush/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// ContentType is the MIME type served for generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxSheetNameLen is the xlsx format limit on worksheet names.
const maxSheetNameLen = 31

func sheetName(tableName string) string {
	if len(tableName) > maxSheetNameLen {
		return tableName[:maxSheetNameLen]
	}
	return tableName
}

// BuildTemplate produces a workbook containing a single sheet named after
// the table with one header row of column names and no data rows.
func BuildTemplate(tableName string, columns []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(tableName)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name template sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write template header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize template: %w", err)
	}
	return buf.Bytes(), nil
}

// EmptyWorkbook returns a workbook with a single blank sheet. Used as the
// download fallback so the link never errors out on the client.
func EmptyWorkbook(tableName string) []byte {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName(tableName)); err != nil {
		customLog.Warnf("xlsx: failed to name fallback sheet: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		// Serializing a fresh workbook only fails on resource exhaustion.
		customLog.Warnf("xlsx: failed to serialize fallback workbook: %v", err)
		return []byte{}
	}
	return buf.Bytes()
}

// ParseRows reads the first sheet of an uploaded workbook and returns the
// header row and the data rows beneath it.
func ParseRows(r io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("workbook has no header row")
	}
	return rows[0], rows[1:], nil
}
