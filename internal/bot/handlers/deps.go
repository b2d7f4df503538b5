package handlers

import (
	"log/slog"

	"github.com/verdantlab/papabois/internal/config"
	"github.com/verdantlab/papabois/internal/database"
	"github.com/verdantlab/papabois/internal/identify"
	"github.com/verdantlab/papabois/internal/state"
)

// HandlerDeps provides dependencies for Telegram command handlers. It is the
// explicit context object that replaces the ambient globals of earlier
// designs: constructed once at startup and injected into every handler.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	States   *state.Tracker
	Pipeline *identify.Pipeline
}
