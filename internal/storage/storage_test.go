// internal/storage/storage_test.go
package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlortiz02/DataRush/config"
	"github.com/nlortiz02/DataRush/internal/domain"
)

// testDB opens a fresh SQLite database in a temp directory.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := &config.Config{
		DatabaseDir:  t.TempDir(),
		DatabaseFile: "test_datarush.db",
	}
	db, err := ConnectDB(cfg)
	require.NoError(t, err, "failed to open test database")

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})
	return db
}

func TestRegisterTable(t *testing.T) {
	assert := assert.New(t)
	db := testDB(t)
	ctx := context.Background()

	// Registry is created lazily by the first operation.
	assert.NoError(RegisterTable(ctx, db, "clientes"))

	// Same name again hits the UNIQUE constraint.
	err := RegisterTable(ctx, db, "clientes")
	assert.ErrorIs(err, ErrTableExists)

	tables, err := ListRegisteredTables(ctx, db)
	assert.NoError(err)
	if assert.Len(tables, 1) {
		assert.Equal("clientes", tables[0].Name)
		assert.Positive(tables[0].ID)
	}
}

func TestListRegisteredTables_EmptyOnFreshDB(t *testing.T) {
	db := testDB(t)

	tables, err := ListRegisteredTables(context.Background(), db)
	assert.NoError(t, err)
	assert.NotNil(t, tables, "list must serialize as [] rather than null")
	assert.Empty(t, tables)
}

func TestRegistryIDsIncrease(t *testing.T) {
	assert := assert.New(t)
	db := testDB(t)
	ctx := context.Background()

	assert.NoError(RegisterTable(ctx, db, "primera"))
	assert.NoError(RegisterTable(ctx, db, "segunda"))

	tables, err := ListRegisteredTables(ctx, db)
	assert.NoError(err)
	if assert.Len(tables, 2) {
		assert.Less(tables[0].ID, tables[1].ID)
	}
}

func TestUnregisterTable_Idempotent(t *testing.T) {
	assert := assert.New(t)
	db := testDB(t)
	ctx := context.Background()

	assert.NoError(RegisterTable(ctx, db, "clientes"))
	assert.NoError(UnregisterTable(ctx, db, "clientes"))
	// Absent row is not an error.
	assert.NoError(UnregisterTable(ctx, db, "clientes"))

	tables, err := ListRegisteredTables(ctx, db)
	assert.NoError(err)
	assert.Empty(tables)
}

func TestCreateAndDropTable(t *testing.T) {
	assert := assert.New(t)
	db := testDB(t)
	ctx := context.Background()

	columns := []domain.Column{
		{Name: "nombre", Type: "TEXT"},
		{Name: "edad", Type: "INTEGER"},
	}
	assert.NoError(CreateTable(ctx, db, "clientes", columns))

	exists, err := TableExists(ctx, db, "clientes")
	assert.NoError(err)
	assert.True(exists)

	// Identity column is synthesized first, always named id.
	cols, err := TableColumns(ctx, db, "clientes")
	assert.NoError(err)
	assert.Equal([]string{"id", "nombre", "edad"}, cols)

	assert.NoError(DropTable(ctx, db, "clientes"))
	exists, err = TableExists(ctx, db, "clientes")
	assert.NoError(err)
	assert.False(exists)

	// Dropping again is a no-op.
	assert.NoError(DropTable(ctx, db, "clientes"))
}

func TestTableColumns_MissingTable(t *testing.T) {
	db := testDB(t)

	_, err := TableColumns(context.Background(), db, "no_existe")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestTruncateTable(t *testing.T) {
	assert := assert.New(t)
	db := testDB(t)
	ctx := context.Background()

	assert.NoError(CreateTable(ctx, db, "clientes", []domain.Column{{Name: "nombre", Type: "TEXT"}}))
	_, err := db.ExecContext(ctx, `INSERT INTO clientes (nombre) VALUES ('ana'), ('luis')`)
	assert.NoError(err)

	assert.NoError(TruncateTable(ctx, db, "clientes"))

	var count int
	assert.NoError(db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clientes`).Scan(&count))
	assert.Zero(count)

	// Schema survives the truncate.
	cols, err := TableColumns(ctx, db, "clientes")
	assert.NoError(err)
	assert.Equal([]string{"id", "nombre"}, cols)

	// Truncating an absent table is a no-op.
	assert.NoError(TruncateTable(ctx, db, "tabla_fantasma"))
}

func TestImportRows(t *testing.T) {
	assert := assert.New(t)
	db := testDB(t)
	ctx := context.Background()

	assert.NoError(CreateTable(ctx, db, "clientes", []domain.Column{
		{Name: "nombre", Type: "TEXT"},
		{Name: "edad", Type: "INTEGER"},
	}))

	inserted, err := ImportRows(ctx, db, "clientes", []string{"nombre", "edad"}, [][]string{
		{"ana", "31"},
		{"luis", "45"},
		{"sin_edad"}, // short row padded with NULL
	})
	assert.NoError(err)
	assert.EqualValues(3, inserted)

	var count int
	assert.NoError(db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clientes`).Scan(&count))
	assert.Equal(3, count)

	var maxID int64
	assert.NoError(db.QueryRowContext(ctx, `SELECT MAX(id) FROM clientes`).Scan(&maxID))
	assert.EqualValues(3, maxID, "autoincrement should assign ids")
}

func TestImportRows_Failures(t *testing.T) {
	assert := assert.New(t)
	db := testDB(t)
	ctx := context.Background()

	assert.NoError(CreateTable(ctx, db, "clientes", []domain.Column{{Name: "nombre", Type: "TEXT"}}))

	t.Run("missing table", func(t *testing.T) {
		_, err := ImportRows(ctx, db, "no_existe", []string{"nombre"}, [][]string{{"ana"}})
		assert.ErrorIs(err, ErrTableNotFound)
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := ImportRows(ctx, db, "clientes", []string{"apellido"}, [][]string{{"gomez"}})
		assert.ErrorIs(err, ErrColumnMismatch)
	})

	t.Run("row wider than header", func(t *testing.T) {
		_, err := ImportRows(ctx, db, "clientes", []string{"nombre"}, [][]string{{"ana", "extra"}})
		assert.ErrorIs(err, ErrColumnMismatch)
	})

	t.Run("no columns", func(t *testing.T) {
		_, err := ImportRows(ctx, db, "clientes", nil, nil)
		assert.ErrorIs(err, ErrColumnMismatch)
	})
}

func TestFindUserByLogin(t *testing.T) {
	assert := assert.New(t)
	db := testDB(t)
	ctx := context.Background()

	assert.NoError(CreateUser(ctx, db, "NLortiz", "40123456", "somehash", "admin", true))

	t.Run("by username, case-insensitive", func(t *testing.T) {
		user, err := FindUserByLogin(ctx, db, "nlortiz")
		assert.NoError(err)
		assert.Equal("NLortiz", user.Username, "canonical casing comes from the store")
		assert.Equal("admin", user.Role)
		assert.True(user.Active)
	})

	t.Run("by document number", func(t *testing.T) {
		user, err := FindUserByLogin(ctx, db, "40123456")
		assert.NoError(err)
		assert.Equal("NLortiz", user.Username)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		_, err := FindUserByLogin(ctx, db, "nadie")
		assert.ErrorIs(err, ErrUserNotFound)
	})

	t.Run("disabled account", func(t *testing.T) {
		assert.NoError(CreateUser(ctx, db, "baja", "", "somehash", "user", false))
		user, err := FindUserByLogin(ctx, db, "baja")
		assert.NoError(err)
		assert.False(user.Active)
	})
}
