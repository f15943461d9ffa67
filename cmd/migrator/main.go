package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pribylovaa/go-foody/internal/config"
	"github.com/pribylovaa/go-foody/migrations"
)

func main() {
	var configPath, dbURL, command string
	flag.StringVar(&configPath, "config", "", "path to config file (or use CONFIG_PATH env)")
	flag.StringVar(&dbURL, "db", "", "database url; overrides DATABASE_URL and config")
	flag.StringVar(&command, "cmd", "up", "migration command: up, down, status")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	dsn := resolveDSN(dbURL, configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := migrate(ctx, dsn, command); err != nil {
		log.Error("migration_failed", slog.String("cmd", command), slog.String("err", err.Error()))
		cancel()
		os.Exit(1)
	}

	log.Info("migration_done", slog.String("cmd", command))
}

// resolveDSN: флаг -db, затем DATABASE_URL, затем конфиг целиком.
func resolveDSN(flagValue, configPath string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	return config.MustLoad(configPath).DB.DatabaseURL
}

func migrate(ctx context.Context, dsn, command string) error {
	var run func(context.Context, *sql.DB) error
	switch command {
	case "up":
		run = migrations.Up
	case "down":
		run = migrations.Down
	case "status":
		run = migrations.Status
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	db, err := migrations.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	return run(ctx, db)
}
