package di

import (
	"github.com/aristath/merval/internal/clients/yahoo"
	"github.com/aristath/merval/internal/config"
	"github.com/aristath/merval/internal/database"
	"github.com/aristath/merval/internal/history"
	"github.com/aristath/merval/internal/reliability"
	"github.com/rs/zerolog"
)

// Container holds the shared dependencies of the command-line tools.
// Optional parts are nil when disabled by configuration.
type Container struct {
	Config *config.Config
	Log    zerolog.Logger

	// HistoryDB and History are nil when HISTORY_DB=off
	HistoryDB *database.DB
	History   *history.Repository

	// Publisher is nil when no S3 bucket is configured
	Publisher *reliability.Publisher

	Yahoo       yahoo.Provider
	Maintenance *reliability.MaintenanceJob
}
