package commands

import (
	"database/sql"

	"github.com/teranos/arbor/am"
	"github.com/teranos/arbor/db"
	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/logger"
)

// openDatabase opens and migrates the snapshot database. An empty dbPath
// falls back to database.path from the loaded config.
func openDatabase(cfg *am.Config, dbPath string) (*sql.DB, string, error) {
	if dbPath == "" {
		dbPath = cfg.GetDatabasePath()
	}

	database, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to open database at %s", dbPath)
	}
	return database, dbPath, nil
}

// loadConfig reads the config cascade, or only path when it is given
func loadConfig(path string) (*am.Config, error) {
	if path != "" {
		return am.LoadFromFile(path)
	}
	return am.Load()
}
