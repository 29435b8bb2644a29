// Package main implements the entry point for the curriculum API server,
// which stores units of study and maps them to competency, SDG and graduate
// capability catalogs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/phrazzld/curriculum-api/internal/config"
	"github.com/phrazzld/curriculum-api/internal/platform/logger"
	"github.com/phrazzld/curriculum-api/internal/platform/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: ./config.yaml when present)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before configuration")
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status, version) and exit")
	autoMigrate := flag.Bool("auto-migrate", true, "apply pending migrations before serving")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *envFile, *migrateCmd, *autoMigrate); err != nil {
		log.Fatalf("curriculum-api: %v", err)
	}
}

// run loads configuration, connects to the database and either executes a
// migration command or serves HTTP until ctx is canceled.
func run(ctx context.Context, configPath, envFile, migrateCmd string, autoMigrate bool) error {
	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("redis_lock", cfg.Redis.Addr != ""),
		slog.Bool("tracing", cfg.Tracing.Enabled))

	db, err := postgres.Open(ctx, cfg.Database, l)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		return postgres.Migrate(ctx, db, migrateCmd, l)
	}
	if autoMigrate {
		if err := postgres.Migrate(ctx, db, postgres.MigrateUp, l); err != nil {
			_ = db.Close()
			return err
		}
	}

	app, err := newApplication(ctx, cfg, l, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// loadEnvFile applies a dotenv file to the process environment. A missing
// file is not an error; variables already set are not overridden.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("no dotenv file, using process environment", slog.String("path", path))
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
