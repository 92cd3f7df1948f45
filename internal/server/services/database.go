package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/aleksvolk/connectboard/internal/common"
	"github.com/aleksvolk/connectboard/internal/dbx"
	"github.com/aleksvolk/connectboard/internal/logging"
)

// browsableTables maps each table exposed by the database browser to its
// key column. Table and column names interpolated into SQL come only from
// this map and from information_schema, never from the request.
var browsableTables = map[string]string{
	"settings": "user_id",
	"users":    "id",
}

// Column describes one column of a browsable table.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"`
	Nullable bool   `json:"nullable"`
}

// DatabaseService backs the operator's database-browser tab: table listing,
// schemas, paginated rows and per-record repair edits, straight over SQL.
type DatabaseService struct {
	db     dbx.DBTX
	logger logging.Logger
}

func NewDatabaseService(db dbx.DBTX, logger logging.Logger) *DatabaseService {
	return &DatabaseService{db: db, logger: logger}
}

func keyColumn(table string) (string, error) {
	key, ok := browsableTables[table]
	if !ok {
		return "", fmt.Errorf("%w: unknown table %q", common.ErrorNotFound, table)
	}
	return key, nil
}

// Tables returns the browsable table names present in the schema, sorted.
func (s *DatabaseService) Tables(ctx context.Context) ([]string, error) {
	query :=
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = 'public'
		 ORDER BY table_name
		 `

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if _, ok := browsableTables[name]; ok {
			tables = append(tables, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tables, nil
}

func (s *DatabaseService) Schema(ctx context.Context, table string) ([]Column, error) {
	if _, err := keyColumn(table); err != nil {
		return nil, err
	}

	query :=
		`SELECT column_name, data_type, is_nullable FROM information_schema.columns
		 WHERE table_schema = 'public' AND table_name = $1
		 ORDER BY ordinal_position
		 `

	rows, err := s.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var schema []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.DataType, &nullable); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		col.Nullable = nullable == "YES"
		schema = append(schema, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return schema, nil
}

// Rows returns one page of table data ordered by the key column, plus the
// total row count. Page numbers start at 1.
func (s *DatabaseService) Rows(ctx context.Context, table string, page, limit int) ([]map[string]any, int, error) {
	key, err := keyColumn(table)
	if err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	dataQuery := fmt.Sprintf(`SELECT * FROM %s ORDER BY %s LIMIT $1 OFFSET $2`, table, key)
	rows, err := s.db.QueryContext(ctx, dataQuery, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	data, err := scanGenericRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return data, total, nil
}

// UpdateRecord patches one row by its key, accepting only columns that
// exist in the table's schema. Returns the updated row.
func (s *DatabaseService) UpdateRecord(ctx context.Context, table, id string, updates map[string]any) (map[string]any, error) {
	key, err := keyColumn(table)
	if err != nil {
		return nil, err
	}

	schema, err := s.Schema(ctx, table)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(schema))
	for _, col := range schema {
		known[col.Name] = true
	}

	fields := make([]string, 0, len(updates))
	for name := range updates {
		if known[name] && name != key {
			fields = append(fields, name)
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no updatable fields", common.ErrorValidation)
	}
	sort.Strings(fields)

	assignments := make([]string, len(fields))
	args := make([]any, 0, len(fields)+1)
	for i, name := range fields {
		assignments[i] = fmt.Sprintf("%s = $%d", name, i+1)
		args = append(args, updates[name])
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $%d`,
		table, strings.Join(assignments, ", "), key, len(args))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if ra == 0 {
		return nil, fmt.Errorf("%w: no such record", common.ErrorNotFound)
	}

	s.logger.Info(ctx, "database record updated", "table", table, "key", id)

	selectQuery := fmt.Sprintf(`SELECT * FROM %s WHERE %s = $1`, table, key)
	rows, err := s.db.QueryContext(ctx, selectQuery, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	records, err := scanGenericRows(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no such record", common.ErrorNotFound)
	}
	return records[0], nil
}

// DeleteRecord removes one row by its key.
func (s *DatabaseService) DeleteRecord(ctx context.Context, table, id string) error {
	key, err := keyColumn(table)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, key)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if ra == 0 {
		return fmt.Errorf("%w: no such record", common.ErrorNotFound)
	}

	s.logger.Info(ctx, "database record deleted", "table", table, "key", id)
	return nil
}

// scanGenericRows decodes rows of unknown shape into column-keyed maps.
// Byte slices become strings so JSON payload columns stay readable.
func scanGenericRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}

		record := make(map[string]any, len(cols))
		for i, name := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			record[name] = v
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
