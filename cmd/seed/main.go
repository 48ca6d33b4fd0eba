package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/uptrade-api/config"
	"github.com/oksasatya/uptrade-api/internal/domain/entity"
	"github.com/oksasatya/uptrade-api/internal/domain/repository"
	"github.com/oksasatya/uptrade-api/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/uptrade-api/internal/infrastructure/postgres"
	"github.com/oksasatya/uptrade-api/pkg/helpers"
)

type account struct {
	name     string
	email    string
	password string
	role     entity.Role
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Creates or refreshes the fixed admin and coach accounts in Postgres.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 0, time.Minute)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	store := pginfra.NewStore(pool, logger, cfg.RetentionDays)
	defer store.Close()

	accounts := []account{
		{name: "Admin", email: envOr("SEED_ADMIN_EMAIL", memory.SeedAdminEmail), password: envOr("SEED_ADMIN_PASSWORD", memory.SeedAdminPassword), role: entity.RoleAdmin},
		{name: "Coach", email: envOr("SEED_COACH_EMAIL", memory.SeedCoachEmail), password: envOr("SEED_COACH_PASSWORD", memory.SeedCoachPassword), role: entity.RoleCoach},
	}
	for _, a := range accounts {
		id, err := upsert(ctx, store, a)
		if err != nil {
			log.Fatalf("failed to seed %s: %v", a.email, err)
		}
		logger.WithFields(logrus.Fields{"id": id, "email": a.email, "role": a.role}).Info("seeded account")
	}
}

func upsert(ctx context.Context, store repository.Store, a account) (string, error) {
	hash, err := helpers.HashPassword(a.password)
	if err != nil {
		return "", err
	}
	existing, err := store.FindUserByEmail(ctx, a.email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		u := &entity.User{Name: a.name, Email: a.email, PasswordHash: hash, Role: a.role, Status: entity.UserStatusApproved}
		if err := store.CreateUser(ctx, u); err != nil {
			return "", err
		}
		return u.ID, nil
	case err != nil:
		return "", err
	}
	status := entity.UserStatusApproved
	_, err = store.UpdateUser(ctx, existing.ID, entity.UserPatch{Role: &a.role, Status: &status, PasswordHash: &hash})
	return existing.ID, err
}
