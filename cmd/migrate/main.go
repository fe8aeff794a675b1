package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"vansales-service/config"
	"vansales-service/internal/store"
	"vansales-service/internal/util"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	cfg := config.Load()
	if err := util.InitLogger(cfg.Server.Env, "vansales-migrate"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	migrator, err := store.NewMigrator(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to open migrations", zap.Error(err))
	}
	defer migrator.Close()

	switch command {
	case "up":
		if err := migrator.Up(); err != nil {
			logger.Fatal("Migration failed", zap.Error(err))
		}
	case "down":
		steps := 1
		if len(args) > 1 {
			steps, err = strconv.Atoi(args[1])
			if err != nil || steps <= 0 {
				logger.Fatal("Invalid step count", zap.String("steps", args[1]))
			}
		}
		if err := migrator.Down(steps); err != nil {
			logger.Fatal("Rollback failed", zap.Error(err))
		}
	case "version":
		version, dirty, err := migrator.Version()
		if err != nil {
			logger.Fatal("Failed to read schema version", zap.Error(err))
		}
		logger.Info("Schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: migrate <command> [args]

Commands:
  up          Apply all pending migrations
  down [n]    Roll back n migrations (default 1)
  version     Print the current schema version

DATABASE_URL selects the database.
`)
}
