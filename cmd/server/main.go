package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"pointflow/internal/config"
	"pointflow/internal/database"
	"pointflow/internal/handlers"
	"pointflow/internal/jobs"
	"pointflow/internal/logging"
	"pointflow/internal/middleware"
	"pointflow/internal/preflight"
	"pointflow/internal/services"
	"pointflow/pkg/auth"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting PointFlow Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, DB: %s)", cfg.Port, cfg.DatabasePath)

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	checker := preflight.NewChecker(db)
	if preflight.HasFailures(checker.RunAll()) {
		log.Fatal("❌ Pre-flight checks failed. Please fix the issues above before starting the server.")
	}

	// JWT auth (nil disables auth in development only)
	var jwtAuth *auth.JWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth, err = auth.NewJWTAuth(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
		log.Println("✅ JWT authentication enabled")
	} else if os.Getenv("ENVIRONMENT") == "production" {
		log.Fatal("❌ JWT_SECRET is required in production")
	} else {
		log.Println("⚠️  JWT_SECRET not set - auth disabled (development mode)")
	}

	// Tier limits, with optional YAML overrides
	tierLimits, err := config.LoadTierLimits(cfg.TiersFile)
	if err != nil {
		log.Fatalf("❌ Failed to load tier limits: %v", err)
	}

	// Stores and services
	userStore := services.NewUserStore(db)
	projectStore := services.NewProjectStore(db)
	pointStore := services.NewPointStore(db)
	tierService := services.NewTierService(userStore, tierLimits)

	completions := services.NewCompletionClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel)
	pipeline := services.NewSummaryPipeline(completions)

	registry := services.NewActorRegistry(projectStore, pointStore, pipeline, tierService, cfg.SummaryTimeout)
	coordinator := services.NewProjectCoordinator(projectStore, tierService, registry)

	// Background jobs
	usageReset, err := jobs.NewUsageResetService(db, tierLimits)
	if err != nil {
		log.Fatalf("❌ Failed to create usage reset job: %v", err)
	}
	usageReset.Start()

	// Handlers
	authHandler := handlers.NewAuthHandler(jwtAuth, userStore)
	projectHandler := handlers.NewProjectHandler(coordinator)
	pointHandler := handlers.NewPointHandler(coordinator)
	healthHandler := handlers.NewHealthHandler(db)

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "PointFlow v1.0",
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second, // summary generation can be slow
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB is plenty for JSON bodies
	})

	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("pointflow")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	rateLimitConfig := middleware.LoadRateLimitConfig()
	app.Use(middleware.GlobalAPIRateLimiter(rateLimitConfig))

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	// Routes
	app.Get("/health", healthHandler.Handle)

	authGroup := app.Group("/api/auth", middleware.AuthRateLimiter(rateLimitConfig))
	authGroup.Post("/signup", authHandler.Signup)
	authGroup.Post("/login", authHandler.Login)

	api := app.Group("/api", middleware.AuthMiddleware(jwtAuth))

	api.Post("/projects", projectHandler.Create)
	api.Get("/projects", projectHandler.List)

	project := api.Group("/project/:id")
	project.Get("/", pointHandler.State)
	project.Get("/info", projectHandler.Get)
	project.Put("/", projectHandler.Rename)
	project.Post("/points", pointHandler.AddPoint)
	project.Put("/points/:pointId/status", pointHandler.SetStatus)
	project.Post("/points/:pointId/reactions", pointHandler.AddReaction)
	project.Post("/points/:pointId/replies", pointHandler.AddReply)
	project.Post("/summary", middleware.SummaryRateLimiter(rateLimitConfig), pointHandler.Summarize)

	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)
	log.Println("🕐 Background jobs: summary usage reset (daily 00:05 UTC)")

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := usageReset.Stop(); err != nil {
			log.Printf("⚠️ Error stopping usage reset job: %v", err)
		}
		registry.Shutdown()

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
