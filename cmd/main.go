package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tekriders/auth-service/config"
	"github.com/tekriders/auth-service/db"
	"github.com/tekriders/auth-service/internal/auth/handler"
	repo "github.com/tekriders/auth-service/internal/auth/repository/postgres"
	"github.com/tekriders/auth-service/internal/auth/service"
	"github.com/tekriders/auth-service/internal/logger"
	"github.com/tekriders/auth-service/internal/mailer"
)

func main() {
	log := logger.New(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}

	ctx := context.Background()

	if err := db.Migrate(ctx, cfg.DBURL); err != nil {
		log.Fatal("failed to migrate database", "error", err)
	}

	pool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	dispatcher, err := mailer.NewSMTPDispatcher(cfg.SMTP.Host, cfg.SMTP.Port,
		cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	if err != nil {
		log.Fatal("failed to create mail dispatcher", "error", err)
	}

	credRepo := repo.NewCredentialRepository(pool)
	tokenService := service.NewTokenService(cfg.SessionTokenSecret, cfg.SessionExpiryHours)
	authService := service.NewAuthService(credRepo, tokenService, dispatcher, cfg, log)
	authHandler := handler.NewAuthHandler(authService, tokenService)

	app := fiber.New()
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	handler.RegisterRoutes(app, authHandler)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}
