// Package db wires the server repositories to a concrete database and runs
// schema migrations.
package db

import (
	"context"
	"database/sql"

	"github.com/aleksvolk/connectboard/internal/server/repositories/settings"
	"github.com/aleksvolk/connectboard/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Settings() settings.Repository
	Users() users.Repository
	Close() error
}
