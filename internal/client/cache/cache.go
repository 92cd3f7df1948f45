// Package cache persists the last-known settings record on the client so a
// session can start with something sensible when the server is unreachable.
package cache

import (
	"context"

	"github.com/aleksvolk/connectboard/internal/settings"
)

// Store is the local persistence used by the synchronizer. Load returns
// common.ErrorNotFound when nothing has been cached yet.
type Store interface {
	Load(ctx context.Context) (*settings.Record, error)
	Store(ctx context.Context, record settings.Record) error
	Clear(ctx context.Context) error
}
