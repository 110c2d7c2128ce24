package connection

import (
	"context"
	"fmt"
	"log"
	"time"

	"taskmanager/database"
	"taskmanager/services"
)

// RunCommand executes one of the maintenance subcommands.
func RunCommand(name string, cfg Config) error {
	switch name {
	case "serve":
		StartServer(cfg)
		return nil
	case "migrate":
		DB, err := database.Open(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return err
		}
		if err := database.Migrate(DB); err != nil {
			return err
		}
		log.Println("[DB] migrated")
		return nil
	case "seed":
		DB, err := database.Open(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return err
		}
		if err := database.Migrate(DB); err != nil {
			return err
		}
		if err := database.Seed(DB, cfg.PasswordCost); err != nil {
			return err
		}
		log.Println("[DB] seeded")
		return nil
	case "reindex":
		return reindex(cfg)
	}
	return fmt.Errorf("unknown command %q (want serve, migrate, seed or reindex)", name)
}

func reindex(cfg Config) error {
	ctx := context.Background()
	DB, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	index, closeIndex, err := OpenIndex(ctx, DB, cfg)
	if err != nil {
		return err
	}
	defer closeIndex()

	start := time.Now()
	sent, err := services.NewTaskService(DB, index).SyncIndex(ctx, time.Time{})
	if err != nil {
		return err
	}
	log.Printf("[search] reindexed %d tasks in %s", sent, time.Since(start).Round(time.Millisecond))
	return nil
}
