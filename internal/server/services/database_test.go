package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksvolk/connectboard/internal/common"
)

func newDatabaseServiceWithMock(t *testing.T) (*DatabaseService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewDatabaseService(db, testLogger()), mock, db
}

func usersSchemaRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
		AddRow("id", "bigint", "NO").
		AddRow("email", "text", "NO").
		AddRow("account_id", "text", "NO").
		AddRow("created_at", "timestamp with time zone", "YES")
}

func TestDatabaseService_TablesFiltersToBrowsable(t *testing.T) {
	svc, mock, db := newDatabaseServiceWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"table_name"}).
		AddRow("goose_db_version").
		AddRow("settings").
		AddRow("users")
	mock.ExpectQuery(`SELECT\s+table_name\s+FROM\s+information_schema\.tables`).
		WillReturnRows(rows)

	tables, err := svc.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"settings", "users"}, tables)
}

func TestDatabaseService_SchemaUnknownTable(t *testing.T) {
	svc, _, db := newDatabaseServiceWithMock(t)
	defer db.Close()

	_, err := svc.Schema(context.Background(), "pg_catalog")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDatabaseService_Schema(t *testing.T) {
	svc, mock, db := newDatabaseServiceWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+column_name,\s*data_type,\s*is_nullable\s+FROM\s+information_schema\.columns`).
		WithArgs("users").
		WillReturnRows(usersSchemaRows())

	schema, err := svc.Schema(context.Background(), "users")
	require.NoError(t, err)
	require.Len(t, schema, 4)
	assert.Equal(t, Column{Name: "id", DataType: "bigint", Nullable: false}, schema[0])
	assert.Equal(t, Column{Name: "created_at", DataType: "timestamp with time zone", Nullable: true}, schema[3])
}

func TestDatabaseService_RowsPaginates(t *testing.T) {
	svc, mock, db := newDatabaseServiceWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	data := sqlmock.NewRows([]string{"id", "email", "account_id"}).
		AddRow(int64(6), []byte("f@example.com"), []byte("acct_f")).
		AddRow(int64(7), []byte("g@example.com"), []byte("acct_g"))
	mock.ExpectQuery(`SELECT\s+\*\s+FROM\s+users\s+ORDER\s+BY\s+id\s+LIMIT\s+\$1\s+OFFSET\s+\$2`).
		WithArgs(5, 5).
		WillReturnRows(data)

	rows, total, err := svc.Rows(context.Background(), "users", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "f@example.com", rows[0]["email"])
	assert.Equal(t, "acct_g", rows[1]["account_id"])
}

func TestDatabaseService_RowsUnknownTable(t *testing.T) {
	svc, _, db := newDatabaseServiceWithMock(t)
	defer db.Close()

	_, _, err := svc.Rows(context.Background(), "users; DROP TABLE users", 1, 10)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDatabaseService_UpdateRecord(t *testing.T) {
	svc, mock, db := newDatabaseServiceWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`information_schema\.columns`).
		WithArgs("users").
		WillReturnRows(usersSchemaRows())
	mock.ExpectExec(`UPDATE\s+users\s+SET\s+email\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2`).
		WithArgs("new@example.com", "7").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT\s+\*\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("7").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow(int64(7), []byte("new@example.com")))

	record, err := svc.UpdateRecord(context.Background(), "users", "7",
		map[string]any{"email": "new@example.com", "bogus": "x", "id": "99"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", record["email"])
}

func TestDatabaseService_UpdateRecordNoUpdatableFields(t *testing.T) {
	svc, mock, db := newDatabaseServiceWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`information_schema\.columns`).
		WithArgs("users").
		WillReturnRows(usersSchemaRows())

	_, err := svc.UpdateRecord(context.Background(), "users", "7",
		map[string]any{"bogus": "x", "id": "99"})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestDatabaseService_UpdateRecordMissingRow(t *testing.T) {
	svc, mock, db := newDatabaseServiceWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`information_schema\.columns`).
		WithArgs("users").
		WillReturnRows(usersSchemaRows())
	mock.ExpectExec(`UPDATE\s+users`).
		WithArgs("new@example.com", "404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := svc.UpdateRecord(context.Background(), "users", "404",
		map[string]any{"email": "new@example.com"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDatabaseService_DeleteRecord(t *testing.T) {
	svc, mock, db := newDatabaseServiceWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+settings\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs("default").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.DeleteRecord(context.Background(), "settings", "default"))

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectExec(`DELETE\s+FROM\s+settings`).
			WithArgs("nobody").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := svc.DeleteRecord(context.Background(), "settings", "nobody")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}
