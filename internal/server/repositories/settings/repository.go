package settings

import (
	"context"

	"github.com/aleksvolk/connectboard/internal/settings"
)

// Repository is the durable store of one settings record per user id.
type Repository interface {
	// Get returns the stored record for userID, common.ErrorNotFound if no
	// row exists, or common.ErrCorruptRecord if a stored category cannot
	// be decoded.
	Get(ctx context.Context, userID string) (*settings.Record, error)

	// Save upserts the whole record for userID, overwriting every category.
	// Concurrent saves for the same user resolve last-write-wins.
	Save(ctx context.Context, userID string, record settings.Record) error

	// Delete removes the row and reports whether one existed.
	Delete(ctx context.Context, userID string) (bool, error)
}
