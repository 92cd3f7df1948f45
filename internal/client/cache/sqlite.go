package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/aleksvolk/connectboard/internal/client/migrations"
	"github.com/aleksvolk/connectboard/internal/common"
	"github.com/aleksvolk/connectboard/internal/dbx"
	"github.com/aleksvolk/connectboard/internal/settings"
)

// storageKey is the fixed key the settings record blob lives under.
const storageKey = "settings"

type SQLiteStore struct {
	db dbx.DBTX
}

func NewSQLiteStore(db dbx.DBTX) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Open opens (creating if needed) the cache database at path and applies
// migrations.
func Open(ctx context.Context, path string) (*SQLiteStore, *sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening cache db: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return nil, nil, fmt.Errorf("migrating cache db: %w", err)
	}

	return NewSQLiteStore(db), db, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*settings.Record, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM cache WHERE key = ?`, storageKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cached settings: %w", err)
	}

	record := settings.New()
	if err := json.Unmarshal(value, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorruptRecord, err)
	}
	return &record, nil
}

func (s *SQLiteStore) Store(ctx context.Context, record settings.Record) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cache (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, storageKey, value)
	if err != nil {
		return fmt.Errorf("failed to store cached settings: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, storageKey)
	if err != nil {
		return fmt.Errorf("failed to clear cached settings: %w", err)
	}
	return nil
}
