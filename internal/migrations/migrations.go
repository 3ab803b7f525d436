// Package migrations applies the schema of every package that shares the
// indexer database.
package migrations

import (
	"database/sql"
	"fmt"

	downloader "github.com/goran-ethernal/DepositIndexor/internal/downloader/migrations"
	"github.com/goran-ethernal/DepositIndexor/internal/logger"
	store "github.com/goran-ethernal/DepositIndexor/internal/store/migrations"
)

// RunMigrations applies the entity store and downloader migrations to database.
func RunMigrations(log *logger.Logger, database *sql.DB) error {
	if err := store.RunMigrationsDB(log, database); err != nil {
		return fmt.Errorf("store migrations: %w", err)
	}
	if err := downloader.RunMigrationsDB(log, database); err != nil {
		return fmt.Errorf("downloader migrations: %w", err)
	}
	return nil
}
