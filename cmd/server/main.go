package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/spotiload/api/internal/archive"
	"github.com/spotiload/api/internal/catalog"
	"github.com/spotiload/api/internal/cleanup"
	"github.com/spotiload/api/internal/config"
	"github.com/spotiload/api/internal/handler"
	"github.com/spotiload/api/internal/middleware"
	"github.com/spotiload/api/internal/pipeline"
	"github.com/spotiload/api/internal/service"
	"github.com/spotiload/api/internal/source"
	"github.com/spotiload/api/internal/storage"
	"github.com/spotiload/api/internal/store"
	"github.com/spotiload/api/internal/worker"
	ws "github.com/spotiload/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Working directories must exist before any pipeline runs
	paths := storage.Paths{
		Temp:   cfg.Download.TempDir,
		Output: cfg.Download.OutputDir,
		Zip:    cfg.Download.ZipDir,
	}
	if err := paths.Ensure(); err != nil {
		log.Fatalf("Failed to create working directories: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Catalog credential cache with scheduled refresh
	creds := catalog.NewCredentials(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
	go creds.Run(ctx)
	provider := catalog.NewProvider(creds)

	// Job record store
	jobs := store.NewJobs(redisClient, cfg.Download.Retention())

	// Track pipeline stages
	locator := source.NewLocator(source.NewYouTubeSearcher(), cfg.Download.SearchLimit)
	guard := cleanup.NewGuard()
	trackPipeline := pipeline.NewTrackPipeline(
		locator,
		pipeline.NewYouTubeFetcher(),
		pipeline.NewFFmpegTranscoder(cfg.Download.Bitrate),
		pipeline.NewID3Tagger(),
		paths,
		guard,
	)
	packager := archive.NewPackager(cfg.Download.ZipDir)
	sweeper := cleanup.NewSweeper(guard,
		cleanup.Dir{Path: cfg.Download.TempDir, MaxAge: time.Duration(cfg.Cleanup.TempMaxAgeHours) * time.Hour},
		cleanup.Dir{Path: cfg.Download.OutputDir, MaxAge: time.Duration(cfg.Cleanup.OutputMaxAgeHours) * time.Hour},
		cleanup.Dir{Path: cfg.Download.ZipDir, MaxAge: time.Duration(cfg.Cleanup.ZipMaxAgeHours) * time.Hour},
	)

	// Initialize services
	catalogService := service.NewCatalogService(provider, jobs, cfg.Download.Retention())
	downloadService := service.NewDownloadService(jobs, asynqClient, cfg.Download.ZipDir)

	// Initialize handlers
	catalogHandler := handler.NewCatalogHandler(catalogService, validate)
	downloadHandler := handler.NewDownloadHandler(downloadService, validate)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Catalog routes
	spotifyGroup := app.Group("/api/spotify", authMiddleware.OptionalAuthenticate())
	spotifyGroup.Post("/validate", catalogHandler.Validate)
	spotifyGroup.Post("/info", rateLimiter.InfoLimit(cfg.RateLimit.InfoPerMin), catalogHandler.Info)
	spotifyGroup.Get("/download/:id", catalogHandler.Status)

	// Download routes
	downloadGroup := app.Group("/api/download", authMiddleware.OptionalAuthenticate())
	downloadGroup.Post("/start", rateLimiter.StartLimit(cfg.RateLimit.StartPerHour), downloadHandler.Start)
	downloadGroup.Get("/file/:filename", downloadHandler.File)
	downloadGroup.Get("/history", downloadHandler.History)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c, c.Params("jobId"))
	}))

	// Start Asynq worker server and sweep scheduler
	go startWorkerServer(redisOpt, jobs, trackPipeline, packager, hub, sweeper)
	go startScheduler(redisOpt)

	// Run one sweep at startup
	if _, err := asynqClient.Enqueue(service.NewCleanupTask(), asynq.Queue("cleanup")); err != nil {
		log.Printf("Failed to enqueue startup cleanup: %v", err)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		cancel()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(redisOpt asynq.RedisClientOpt, jobs *store.Jobs, trackPipeline *pipeline.TrackPipeline, packager *archive.Packager, hub *ws.Hub, sweeper *cleanup.Sweeper) {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			"download": 6,
			"cleanup":  1,
		},
	})

	downloadWorker := worker.NewDownloadWorker(jobs, trackPipeline, packager, hub)
	cleanupWorker := worker.NewCleanupWorker(sweeper)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeDownload, downloadWorker.ProcessTask)
	mux.HandleFunc(service.TaskTypeCleanup, cleanupWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func startScheduler(redisOpt asynq.RedisClientOpt) {
	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register("@every 1h", service.NewCleanupTask(), asynq.Queue("cleanup")); err != nil {
		log.Printf("Failed to register cleanup schedule: %v", err)
		return
	}
	if err := scheduler.Run(); err != nil {
		log.Printf("Asynq scheduler error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
