package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"emergency-fund/internal/adapters/http/middleware"
	"emergency-fund/internal/adapters/http/routes"
	"emergency-fund/internal/app"
	"emergency-fund/internal/config"
	"emergency-fund/internal/core/services"
	"emergency-fund/internal/infrastructure/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	_ "emergency-fund/docs" // Swagger docs
)

// @title Emergency Fund API
// @version 1.0
// @description Emergency-fund demand lifecycle: submission, review, conversion to contract and payment schedules.

// @contact.name API Support

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	if err := logger.Init(&cfg.Log, cfg.AppMode); err != nil {
		log.Fatalf("❌ Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		zap.L().Fatal("failed to connect to database", zap.Error(err))
	}
	defer config.CloseDatabase(db)

	// Auto migrate (creates tables if not exist)
	if err := config.Migrate(db); err != nil {
		zap.L().Fatal("failed to auto migrate", zap.Error(err))
	}

	ctx := context.Background()
	container := app.New(ctx, cfg, db)
	defer container.Close()

	// Seed plan catalog (and the dev admin)
	if err := config.NewSeeder(db, container.Plans, cfg).Run(ctx); err != nil {
		zap.L().Warn("failed to seed data", zap.Error(err))
	}

	// Background jobs: conversion reconciliation and token cleanup
	cronService := services.NewCronService(container.DemandSvc, container.AuthSvc, cfg.Fund.SystemActorID, cfg.Fund.ReconcileBatch)
	if err := cronService.Start(cfg.Fund.ReconcileCron); err != nil {
		zap.L().Fatal("failed to start cron", zap.Error(err))
	}
	defer cronService.Stop()

	// Create Fiber app
	fiberApp := fiber.New(fiber.Config{
		AppName:      "Emergency Fund API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(fiberApp, cfg)

	// Setup routes
	routes.Setup(fiberApp, container)

	// Graceful shutdown
	go gracefulShutdown(fiberApp)

	// Start server
	zap.L().Info("server starting", zap.String("port", cfg.Port), zap.String("mode", cfg.AppMode))
	if err := fiberApp.Listen(":" + cfg.Port); err != nil {
		zap.L().Fatal("failed to start server", zap.Error(err))
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(fiberApp *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("shutting down server")
	if err := fiberApp.Shutdown(); err != nil {
		zap.L().Error("error during shutdown", zap.Error(err))
	}
	zap.L().Info("server stopped gracefully")
}
