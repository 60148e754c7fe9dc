package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"liuyao/internal/config"
	"liuyao/internal/divination"
	"liuyao/internal/handlers"
	"liuyao/internal/history"
	"liuyao/internal/interpreter"
	"liuyao/internal/jobs"
	"liuyao/internal/llm"
	"liuyao/internal/logging"
	"liuyao/internal/middleware"
	"liuyao/internal/quota"
	"liuyao/internal/reference"
	"liuyao/internal/services"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting LiuYao Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Load configuration
	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Data: %s)", cfg.Port, cfg.DataDir)

	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		log.Fatalf("❌ Failed to load settings: %v", err)
	}
	errs, warnings := settings.Validate()
	for _, w := range warnings {
		log.Printf("⚠️  [CONFIG] %s", w)
	}
	if len(errs) > 0 {
		for _, e := range errs {
			log.Printf("❌ [CONFIG] %s", e)
		}
		log.Fatal("❌ Settings validation failed")
	}

	// The symbol table is load-bearing for every cast; refuse to start on a
	// broken build rather than serve wrong hexagrams.
	if err := divination.ValidateSymbolTable(); err != nil {
		log.Fatalf("❌ Symbol table validation failed: %v", err)
	}
	log.Println("✅ Symbol table validated (64 hexagrams, bijective)")

	// Reference texts with hot reload
	refs, err := reference.NewStore(filepath.Join(cfg.DataDir, "static", "hexagrams.json"))
	if err != nil {
		log.Fatalf("❌ Failed to load reference data: %v", err)
	}
	go refs.Watch()

	// Stores
	quotaStore, err := quota.NewStore(cfg.DataDir, settings.Limit.DailyMax,
		settings.Limit.ResetHour, settings.Limit.Timezone)
	if err != nil {
		log.Fatalf("❌ Failed to initialize quota store: %v", err)
	}
	historyStore := history.NewStore(filepath.Join(cfg.DataDir, "history"))

	// Optional model layer
	var generator llm.Generator
	if settings.LLM.Enabled {
		providers, err := config.LoadProviders(cfg.ProvidersPath)
		if err != nil {
			log.Fatalf("❌ LLM enabled but providers config unusable: %v", err)
		}
		generator, err = llm.NewGenerator(providers)
		if err != nil {
			log.Fatalf("❌ Failed to initialize model client: %v", err)
		}
		log.Println("✅ Model-backed interpretation enabled")
	} else {
		log.Println("ℹ️  Model layer disabled; using deterministic interpretations")
	}

	// Services
	metrics := services.InitMetrics()
	service := services.NewDivinationService(
		divination.NewCalculator(),
		interpreter.New(refs, generator),
		quotaStore,
		historyStore,
		settings,
		metrics,
	)

	// Background jobs
	loc, err := time.LoadLocation(settings.Limit.Timezone)
	if err != nil {
		log.Fatalf("❌ Invalid timezone %q: %v", settings.Limit.Timezone, err)
	}
	reporter, err := jobs.NewUsageReporter(quotaStore, loc)
	if err != nil {
		log.Fatalf("❌ Failed to create usage reporter: %v", err)
	}
	if err := reporter.Start(settings.Limit.ResetHour); err != nil {
		log.Fatalf("❌ Failed to start usage reporter: %v", err)
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "LiuYao v1.0",
		ReadTimeout:  120 * time.Second, // model calls dominate the long tail
		WriteTimeout: 120 * time.Second,
		BodyLimit:    64 * 1024, // requests are small JSON bodies
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("liuyao")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// CORS configuration with environment-based origins
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Admin-User",
	}))

	// Rate limiting: per-IP flood protection in front of the per-user quota
	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Divine=%d/min",
		rateLimitConfig.GlobalAPIMax, rateLimitConfig.DivineMax)
	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Handlers
	quotaLimiter := middleware.NewQuotaLimiter(quotaStore)
	divHandler := handlers.NewDivinationHandler(service)
	histHandler := handlers.NewHistoryHandler(service)
	quotaHandler := handlers.NewQuotaHandler(service)
	healthHandler := handlers.NewHealthHandler(refs)

	// Routes
	app.Get("/health", healthHandler.Handle)
	api := app.Group("/api")
	api.Post("/divine",
		middleware.DivineRateLimiter(rateLimitConfig),
		quotaLimiter.CheckLimit,
		divHandler.Divine,
	)
	api.Get("/history/:user", histHandler.List)
	api.Delete("/history/:user", histHandler.Clear)
	api.Get("/quota/:user", quotaHandler.Status)
	api.Post("/quota/:user/reset", middleware.AdminMiddleware(settings), quotaHandler.Reset)
	api.Get("/stats", quotaHandler.Stats)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")

		if err := reporter.Stop(); err != nil {
			log.Printf("⚠️ Error stopping usage reporter: %v", err)
		}
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
