package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/newsflow/backend/internal/config"
	"github.com/newsflow/backend/internal/database"
	"github.com/newsflow/backend/internal/handlers"
	"github.com/newsflow/backend/internal/middleware"
	"github.com/newsflow/backend/internal/services"
	"github.com/newsflow/backend/internal/storage"
	"github.com/newsflow/backend/pkg/logger"
	"github.com/newsflow/backend/pkg/utils"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	store, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := store.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	authzService := services.NewAuthzService()
	libraryService := services.NewLibraryService(db)
	mailer := services.NewSMTPMailer(cfg.SMTP, cfg.Server.FrontendURL)

	authHandler := handlers.NewAuthHandler(db)
	assetsHandler := handlers.NewAssetsHandler(db, store, authzService, libraryService)
	collectionsHandler := handlers.NewCollectionsHandler(db, authzService)
	adminHandler := handlers.NewAdminHandler(db, authzService, mailer)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 100 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Get("/version", handlers.GetVersion)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)

	assetRoutes := api.Group("/assets", authMiddleware.RequireAuth)
	assetRoutes.Post("/upload", assetsHandler.Upload)
	assetRoutes.Get("/", assetsHandler.List)
	assetRoutes.Get("/review", middleware.ReviewerOnly, assetsHandler.ReviewQueue)
	assetRoutes.Get("/library", assetsHandler.LibraryView)
	assetRoutes.Put("/:id/status", middleware.ReviewerOnly, assetsHandler.UpdateStatus)
	assetRoutes.Get("/:id/download-url", assetsHandler.DownloadURL)
	assetRoutes.Get("/:id", assetsHandler.Get)
	assetRoutes.Delete("/:id", assetsHandler.Delete)

	collectionRoutes := api.Group("/collections", authMiddleware.RequireAuth)
	collectionRoutes.Post("/", collectionsHandler.Create)
	collectionRoutes.Get("/", collectionsHandler.ListMine)
	collectionRoutes.Get("/:id", collectionsHandler.Get)
	collectionRoutes.Put("/:id/add", collectionsHandler.AddAsset)
	collectionRoutes.Put("/:id/remove", collectionsHandler.RemoveAsset)
	collectionRoutes.Put("/:id", collectionsHandler.Update)
	collectionRoutes.Delete("/:id", collectionsHandler.Delete)

	adminRoutes := api.Group("/admin", authMiddleware.RequireAuth, middleware.AdminOnly)
	adminRoutes.Get("/users", adminHandler.ListUsers)
	adminRoutes.Put("/users/:id/status", adminHandler.UpdateUserStatus)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
