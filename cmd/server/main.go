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
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"supportboard/internal/config"
	"supportboard/internal/database"
	"supportboard/internal/handlers"
	"supportboard/internal/jobs"
	"supportboard/internal/kv"
	"supportboard/internal/logging"
	"supportboard/internal/middleware"
	"supportboard/internal/services"
	"supportboard/internal/store"
	"supportboard/pkg/auth"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting SupportBoard Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	// Load configuration
	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	weights, err := cfg.LoadWeights()
	if err != nil {
		log.Printf("⚠️  Retrieval config invalid, using defaults: %v", err)
	}
	log.Printf("🔍 Retrieval weights: title=%d keyword=%d content=%d top=%d",
		weights.Title, weights.Keyword, weights.Content, weights.MaxResults)

	// Knowledge store: the backend connection itself is established
	// lazily on first read, once per process.
	knowledgeStore := store.New(store.Config{
		KV: kv.Options{
			RESTURL:   cfg.KVRestURL,
			RESTToken: cfg.KVRestToken,
			RedisURL:  cfg.RedisURL,
		},
		VerifyDelay: cfg.StoreVerifyDelay,
	})
	defer knowledgeStore.Close()

	// SQLite database for forum-post tracking
	db, err := database.New(cfg.ForumDBPath)
	if err != nil {
		log.Fatalf("❌ Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Services
	broadcaster := services.NewBroadcaster()
	metrics := services.InitMetrics(broadcaster)
	tracker := services.NewForumTrackerService(db)
	summarizer := services.NewSummarizer(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.SummaryModel)
	if summarizer.Enabled() {
		log.Println("✅ Summarizer initialized")
	} else {
		log.Println("⚠️  OPENAI_API_KEY not set — solve-and-summarize disabled")
	}

	// Session auth for the dashboard
	var sessionAuth *auth.SessionAuth
	if cfg.JWTSecret != "" {
		sessionAuth, err = auth.NewSessionAuth(cfg.JWTSecret, 12*time.Hour)
		if err != nil {
			log.Fatalf("❌ Failed to initialize session auth: %v", err)
		}
		log.Println("✅ Session auth initialized")
	} else {
		log.Println("⚠️  JWT_SECRET not set — dashboard login disabled")
	}

	// Background jobs
	scheduler, err := jobs.StartScheduler(tracker, cfg.ForumRetentionDays)
	if err != nil {
		log.Fatalf("❌ Failed to start job scheduler: %v", err)
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "SupportBoard v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    2 * 1024 * 1024, // snapshots are small; 2MB is generous
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("supportboard")
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
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-API-Key,If-None-Match",
		AllowCredentials: allowedOrigins != "*",
	}))

	// Keep one bad actor from hammering the data endpoint.
	app.Use("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(knowledgeStore, broadcaster)
	dataHandler := handlers.NewDataHandler(knowledgeStore, broadcaster, metrics)
	retrievalHandler := handlers.NewRetrievalHandler(knowledgeStore, weights, metrics)
	pendingHandler := handlers.NewPendingHandler(knowledgeStore, broadcaster, metrics)
	solveHandler := handlers.NewSolveHandler(knowledgeStore, summarizer, tracker, broadcaster, metrics)
	forumHandler := handlers.NewForumHandler(tracker)
	authHandler := handlers.NewAuthHandler(sessionAuth, cfg.AdminPasswordHash)
	eventsHandler := handlers.NewEventsHandler(broadcaster)

	// Routes
	app.Get("/health", healthHandler.Handle)
	app.Post("/api/auth/login", authHandler.Login)

	// Snapshot reads are open to both consumers; mutations need a
	// dashboard session.
	requireSession := middleware.RequireSession(sessionAuth)
	if sessionAuth == nil {
		requireSession = func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Dashboard login is not configured",
			})
		}
	}

	app.Get("/api/data", dataHandler.Get)
	app.Post("/api/data", requireSession, dataHandler.Post)

	app.Post("/api/pending/:id/approve", requireSession, pendingHandler.Approve)
	app.Delete("/api/pending/:id", requireSession, pendingHandler.Discard)

	// Bot process routes
	botKey := middleware.BotKey(cfg.BotAPIKey)
	app.Post("/api/retrieval/query", botKey, retrievalHandler.Query)
	app.Post("/api/threads/:id/solve", botKey, solveHandler.Solve)
	app.Post("/api/forum/posts", botKey, forumHandler.Track)
	app.Patch("/api/forum/posts/:id", botKey, forumHandler.Update)
	app.Get("/api/forum/posts", forumHandler.List)

	// Websocket change events for dashboards
	app.Use("/ws/events", eventsHandler.Upgrade)
	app.Get("/ws/events", eventsHandler.Handle())

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := scheduler.Shutdown(); err != nil {
			log.Printf("⚠️ Error stopping scheduler: %v", err)
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
