package migrations

import (
	"database/sql"
	_ "embed"

	"github.com/goran-ethernal/DepositIndexor/internal/db"
	"github.com/goran-ethernal/DepositIndexor/internal/logger"
)

//go:embed 001_entities.sql
var mig001 string

//go:embed 002_entity_indexes.sql
var mig002 string

var all = []db.Migration{
	{ID: "store_001_entities.sql", SQL: mig001},
	{ID: "store_002_entity_indexes.sql", SQL: mig002},
}

// RunMigrations runs all migrations for the entity store database.
func RunMigrations(dbPath string) error {
	return db.RunMigrations(dbPath, all)
}

// RunMigrationsDB runs all entity store migrations on an open database.
func RunMigrationsDB(log *logger.Logger, database *sql.DB) error {
	return db.RunMigrationsDB(log, database, all)
}
