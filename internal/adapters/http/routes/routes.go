package routes

import (
	"emergency-fund/internal/adapters/http/handlers"
	"emergency-fund/internal/adapters/http/middleware"
	"emergency-fund/internal/app"
	"emergency-fund/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Setup configures all routes for the application
func Setup(fiberApp *fiber.App, c *app.Container) {
	cfg := c.Config

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(c.DB, c.Redis, cfg)
	authHandler := handlers.NewAuthHandler(c.AuthSvc, cfg)
	demandHandler := handlers.NewDemandHandler(c.DemandSvc)
	contractHandler := handlers.NewContractHandler(c.DemandSvc)
	planHandler := handlers.NewPlanHandler(c.PlanSvc, c.DemandSvc)
	adminHandler := handlers.NewAdminHandler(c.DemandSvc)
	userHandler := handlers.NewUserHandler(c.UserSvc)
	dashboardHandler := handlers.NewDashboardHandler(c.DashboardSvc)
	eventHandler := handlers.NewEventHandler(c.Stream)

	// Health check & root routes
	fiberApp.Get("/", healthHandler.Root)
	fiberApp.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	fiberApp.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := fiberApp.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	setupAuthRoutes(apiV1.Group("/auth"), authHandler, cfg)

	// User management routes (Admin only)
	userRoutes := apiV1.Group("/users", middleware.AuthMiddleware(cfg), middleware.AdminOnly())
	setupUserRoutes(userRoutes, userHandler)

	// Profile routes (Authenticated users)
	apiV1.Put("/profile/password", middleware.AuthMiddleware(cfg), userHandler.ChangePassword)

	// Plan catalog (Authenticated users)
	planRoutes := apiV1.Group("/plans", middleware.AuthMiddleware(cfg))
	setupPlanRoutes(planRoutes, planHandler)
	apiV1.Post("/schedules/preview", middleware.AuthMiddleware(cfg), planHandler.PreviewSchedule)

	// Demand routes (Officer/Admin)
	demandRoutes := apiV1.Group("/demands", middleware.AuthMiddleware(cfg), middleware.OfficerOrAdmin(), middleware.NoCacheHeaders())
	setupDemandRoutes(demandRoutes, demandHandler)

	// Contract routes (Officer/Admin)
	contractRoutes := apiV1.Group("/contracts", middleware.AuthMiddleware(cfg), middleware.OfficerOrAdmin(), middleware.NoCacheHeaders())
	setupContractRoutes(contractRoutes, contractHandler)

	// Lifecycle event stream (Officer/Admin)
	apiV1.Get("/events/stream", middleware.AuthMiddleware(cfg), middleware.OfficerOrAdmin(), eventHandler.Stream)

	// Dashboard (Admin only)
	apiV1.Get("/dashboard", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), dashboardHandler.GetDashboard)

	// Maintenance routes (Admin only)
	adminRoutes := apiV1.Group("/admin", middleware.AuthMiddleware(cfg), middleware.AdminOnly())
	adminRoutes.Post("/reconcile", middleware.StrictRateLimiter(), adminHandler.Reconcile)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
	router.Post("/users", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.CreateUser)
}

// setupUserRoutes configures operator account routes
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Get("/:id", handler.GetUser)
	router.Put("/:id", handler.UpdateUser)
	router.Delete("/:id", handler.DeleteUser)
}

// setupPlanRoutes configures subscription plan routes
func setupPlanRoutes(router fiber.Router, handler *handlers.PlanHandler) {
	router.Get("/", middleware.PlanCatalogCache(), handler.List)
	router.Post("/", middleware.AdminOnly(), handler.Create)
}

// setupDemandRoutes configures demand routes
func setupDemandRoutes(router fiber.Router, handler *handlers.DemandHandler) {
	router.Get("/", handler.List)
	router.Get("/stats", handler.Stats)
	router.Post("/", handler.Create)
	router.Get("/:id", handler.GetByID)
	router.Put("/:id", handler.Update)
	router.Delete("/:id", handler.Delete)

	// Workflow actions
	router.Put("/:id/accept", handler.Accept)
	router.Put("/:id/reject", handler.Reject)
	router.Put("/:id/reopen", handler.Reopen)
	router.Post("/:id/convert", handler.Convert)

	router.Get("/:id/history", handler.History)
	router.Get("/:id/schedule", handler.Schedule)
}

// setupContractRoutes configures contract routes
func setupContractRoutes(router fiber.Router, handler *handlers.ContractHandler) {
	router.Get("/:id", handler.GetByID)
	router.Delete("/:id", handler.Delete)
	router.Get("/:id/schedule", handler.Schedule)
}
