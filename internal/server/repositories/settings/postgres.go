package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aleksvolk/connectboard/internal/common"
	"github.com/aleksvolk/connectboard/internal/dbx"
	"github.com/aleksvolk/connectboard/internal/settings"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*settings.Record, error) {
	query :=
		`SELECT general, onboarding, dashboard, payment, logs, ui FROM settings
		 WHERE user_id = $1
		 `

	var raw [6][]byte
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&raw[0], &raw[1], &raw[2], &raw[3], &raw[4], &raw[5])

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	record := settings.New()
	for i, name := range settings.CategoryNames {
		if len(raw[i]) == 0 {
			continue
		}
		dst, _ := record.Category(name)
		if err := json.Unmarshal(raw[i], &dst); err != nil {
			return nil, fmt.Errorf("%w: category %s for user %s: %v",
				common.ErrCorruptRecord, name, userID, err)
		}
	}

	return &record, nil
}

func (r *PostgresRepository) Save(ctx context.Context, userID string, record settings.Record) error {
	query :=
		`INSERT INTO settings (user_id, general, onboarding, dashboard, payment, logs, ui)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id) DO UPDATE SET
		    general = excluded.general,
		    onboarding = excluded.onboarding,
		    dashboard = excluded.dashboard,
		    payment = excluded.payment,
		    logs = excluded.logs,
		    ui = excluded.ui,
		    updated_at = now()
		 `

	args := make([]any, 0, 7)
	args = append(args, userID)
	for _, name := range settings.CategoryNames {
		category, _ := record.Category(name)
		if category == nil {
			category = map[string]any{}
		}
		data, err := json.Marshal(category)
		if err != nil {
			return fmt.Errorf("encode category %s: %w", name, err)
		}
		args = append(args, data)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string) (bool, error) {
	query := `DELETE FROM settings WHERE user_id = $1`

	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ra > 0, nil
}
