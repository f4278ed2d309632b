package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vidstream/identity-service/config"
	"github.com/vidstream/identity-service/db"
	"github.com/vidstream/identity-service/internal/auth/handler"
	repo "github.com/vidstream/identity-service/internal/auth/repository/postgres"
	"github.com/vidstream/identity-service/internal/auth/service"
	"github.com/vidstream/identity-service/internal/media"
	"github.com/vidstream/identity-service/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.Must(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}

	mediaStore, err := media.NewS3Store(ctx, cfg)
	if err != nil {
		log.Fatal("media store init failed", zap.Error(err))
	}

	userRepo := repo.NewPostgresUserRepository(dbPool)
	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())
	userService := service.NewUserService(userRepo, tokenService, mediaStore, log, cfg.DBTimeout())
	authHandler := handler.NewAuthHandler(userService, tokenService, cfg)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler)

	log.Info("identity service listening", zap.String("port", cfg.Port))

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
