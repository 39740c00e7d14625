// Package di provides dependency injection for database connections.
package di

import (
	"fmt"
	"path/filepath"

	"github.com/neoyipeng2018/central-bank-tracker/internal/config"
	"github.com/neoyipeng2018/central-bank-tracker/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens both databases and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. snippets.db - ingested speeches and news, pruned by retention
	snippetsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, database.NameSnippets+".db"),
		Profile: database.ProfileCache,
		Name:    database.NameSnippets,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snippets database: %w", err)
	}
	container.SnippetsDB = snippetsDB

	// 2. history.db - stance history and run summaries
	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, database.NameHistory+".db"),
		Profile: database.ProfileStandard,
		Name:    database.NameHistory,
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}
	container.HistoryDB = historyDB

	for _, db := range []*database.DB{snippetsDB, historyDB} {
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("Databases initialized")
	return container, nil
}
