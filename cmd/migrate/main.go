package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"github.com/oksasatya/uptrade-api/config"
	pginfra "github.com/oksasatya/uptrade-api/internal/infrastructure/postgres"
	"github.com/oksasatya/uptrade-api/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-migrate", cfg.Env)

	cmd := flag.String("cmd", "up", "migration command: up|down|steps|version|force")
	dir := flag.String("dir", cfg.MigrationsDir, "migrations directory")
	n := flag.Int("n", 1, "step count for -cmd=steps (negative rolls back), version for -cmd=force")
	flag.Parse()

	m, closeFn, err := pginfra.NewMigrator(cfg.PostgresDSN(), *dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open migrator: %v\n", err)
		os.Exit(1)
	}
	defer closeFn()

	switch *cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		err = m.Steps(*n)
	case "force":
		err = m.Force(*n)
	case "version":
		v, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			err = verr
			break
		}
		fmt.Printf("version=%d dirty=%v\n", v, dirty)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown -cmd %q\n", *cmd)
		os.Exit(2)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no change")
		return
	}
	if err != nil {
		logger.WithError(err).Error("migration failed")
		closeFn()
		os.Exit(1)
	}
	logger.WithField("cmd", *cmd).Info("migration complete")
}
