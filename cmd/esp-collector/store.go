package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gtfisher/esp-collector/pkg/database"
)

// openStore opens the reading store selected by STORE_DRIVER
func openStore(ctx context.Context, cfg *Config) (database.Store, error) {
	switch cfg.StoreDriver {
	case "postgres":
		dbManager, err := database.NewDatabaseManager(cfg.DB, cfg.ReadingsLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := dbManager.Init(ctx); err != nil {
			dbManager.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		log.Printf("✓ Using PostgreSQL store %s@%s:%s/%s", cfg.DB.User, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
		return dbManager, nil
	default:
		fileStore, err := database.NewFileStore(cfg.StorePath(), cfg.ReadingsLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		log.Printf("✓ Using file store %s", fileStore.Path())
		return fileStore, nil
	}
}
