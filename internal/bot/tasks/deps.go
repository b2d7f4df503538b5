// Package tasks implements the bot's scheduled background tasks: database
// maintenance and expiry of stale awaiting-photo state.
package tasks

import (
	"log/slog"

	"github.com/verdantlab/papabois/internal/config"
	"github.com/verdantlab/papabois/internal/database"
	"github.com/verdantlab/papabois/internal/state"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	States *state.Tracker
	Config *config.Config
}
