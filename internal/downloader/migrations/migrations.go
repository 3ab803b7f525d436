package migrations

import (
	"database/sql"
	_ "embed"

	"github.com/goran-ethernal/DepositIndexor/internal/db"
	"github.com/goran-ethernal/DepositIndexor/internal/logger"
)

//go:embed 001_sync_state.sql
var mig001 string

var all = []db.Migration{
	{ID: "downloader_001_sync_state.sql", SQL: mig001},
}

// RunMigrations runs all migrations for the downloader database.
func RunMigrations(dbPath string) error {
	return db.RunMigrations(dbPath, all)
}

// RunMigrationsDB runs all downloader migrations on an open database.
func RunMigrationsDB(log *logger.Logger, database *sql.DB) error {
	return db.RunMigrationsDB(log, database, all)
}
