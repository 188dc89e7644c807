// api/handlers/template_handler_integration_test.go
package handlers_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuri/excelize/v2"

	"github.com/nlortiz02/DataRush/internal/xlsx"
)

// buildWorkbook assembles an upload payload: header row plus data rows.
func buildWorkbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// uploadWorkbook posts a multipart upload-excel request.
func uploadWorkbook(t *testing.T, serverURL, tableName string, payload []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("tableName", tableName))
	part, err := writer.CreateFormFile("file", tableName+".xlsx")
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	res, err := http.Post(serverURL+"/upload-excel", writer.FormDataContentType(), &body)
	require.NoError(t, err)
	return res
}

func TestDownloadTemplate(t *testing.T) {
	assert := assert.New(t)
	server, _ := setupTestServer(t)

	res := postJSON(t, server.URL+"/create-table", createTableRequest("clientes"))
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, err := http.Get(server.URL + "/download-template?tableName=clientes")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(http.StatusOK, res.StatusCode)
	assert.Equal(xlsx.ContentType, res.Header.Get("Content-Type"))
	assert.Contains(res.Header.Get("Content-Disposition"), "clientes.xlsx")

	payload, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	header, dataRows, err := xlsx.ParseRows(bytes.NewReader(payload))
	assert.NoError(err)
	assert.Equal([]string{"id", "nombre", "edad"}, header)
	assert.Empty(dataRows, "template has header only")
}

func TestDownloadTemplate_UnknownTableFallsBack(t *testing.T) {
	assert := assert.New(t)
	server, _ := setupTestServer(t)

	// The download link never errors: unknown table yields an empty workbook.
	res, err := http.Get(server.URL + "/download-template?tableName=no_existe")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(http.StatusOK, res.StatusCode)
	assert.Equal(xlsx.ContentType, res.Header.Get("Content-Type"))

	payload, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.NotEmpty(payload, "fallback is a real, empty workbook")
}

func TestUploadExcel(t *testing.T) {
	assert := assert.New(t)
	server, db := setupTestServer(t)

	res := postJSON(t, server.URL+"/create-table", createTableRequest("clientes"))
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	// Filled-in template: id column present but left to autoincrement.
	payload := buildWorkbook(t,
		[]any{"id", "nombre", "edad"},
		[]any{"", "ana", 31},
		[]any{"", "luis", 45},
	)

	res = uploadWorkbook(t, server.URL, "clientes", payload)
	body := decodeSuccess(t, res)
	res.Body.Close()
	assert.Equal(http.StatusOK, res.StatusCode)
	assert.True(body.Success)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM clientes`).Scan(&count))
	assert.Equal(2, count)

	var nombre string
	require.NoError(t, db.QueryRow(`SELECT nombre FROM clientes WHERE id = 1`).Scan(&nombre))
	assert.Equal("ana", nombre, "id assigned by autoincrement, not the sheet")
}

func TestUploadExcel_Failures(t *testing.T) {
	server, _ := setupTestServer(t)

	res := postJSON(t, server.URL+"/create-table", createTableRequest("clientes"))
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	t.Run("missing table name", func(t *testing.T) {
		res := uploadWorkbook(t, server.URL, "", buildWorkbook(t, []any{"nombre"}))
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("header column not in schema", func(t *testing.T) {
		payload := buildWorkbook(t,
			[]any{"apellido"},
			[]any{"gomez"},
		)
		res := uploadWorkbook(t, server.URL, "clientes", payload)
		defer res.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		assert.False(t, decodeSuccess(t, res).Success)
	})

	t.Run("not a workbook", func(t *testing.T) {
		res := uploadWorkbook(t, server.URL, "clientes", []byte("plain text"))
		defer res.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	})

	t.Run("unknown table", func(t *testing.T) {
		res := uploadWorkbook(t, server.URL, "no_existe", buildWorkbook(t, []any{"nombre"}))
		defer res.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	})
}
