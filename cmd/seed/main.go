package main

import (
	"context"
	"errors"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fastbb/config"
	"github.com/oksasatya/fastbb/internal/domain/entity"
	repo "github.com/oksasatya/fastbb/internal/domain/repository"
	pginfra "github.com/oksasatya/fastbb/internal/infrastructure/postgres"
	"github.com/oksasatya/fastbb/pkg/helpers"
)

// seed creates the admin account and a first category. Running it twice is harmless.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	categories := pginfra.NewCategoryRepository(pool)
	hasher := helpers.NewBcryptHasher(cfg.BcryptCost)

	admin, err := seedAdmin(ctx, users, hasher, cfg)
	if err != nil {
		logger.Fatalf("failed to seed admin: %v", err)
	}
	logger.WithFields(logrus.Fields{"id": admin.ID, "username": admin.Username}).Info("admin ready")

	if cfg.SeedCategory != "" {
		c, err := seedCategory(ctx, categories, cfg.SeedCategory)
		if err != nil {
			logger.Fatalf("failed to seed category: %v", err)
		}
		logger.WithFields(logrus.Fields{"id": c.ID, "name": c.Name}).Info("category ready")
	}
}

func seedAdmin(ctx context.Context, users repo.UserRepository, hasher helpers.PasswordHasher, cfg *config.Config) (*entity.User, error) {
	if u, err := users.FindByUsername(ctx, cfg.SeedAdminUsername); err == nil {
		return u, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	hash, err := hasher.Hash(cfg.SeedAdminPassword)
	if err != nil {
		return nil, err
	}
	var email *string
	if cfg.SeedAdminEmail != "" {
		email = &cfg.SeedAdminEmail
	}
	return users.Insert(ctx, &entity.StoredCredential{
		User:       entity.User{Username: cfg.SeedAdminUsername, Email: email, IsActive: true, IsAdmin: true},
		Credential: entity.Credential{PasswordHash: hash},
	})
}

func seedCategory(ctx context.Context, categories repo.CategoryRepository, name string) (*entity.Category, error) {
	if c, err := categories.GetByName(ctx, name); err == nil {
		return c, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	c := &entity.Category{Name: name}
	if err := categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
