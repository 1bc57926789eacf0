package main

import (
	"context"
	"log"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/quietcut/api/internal/client"
	"github.com/quietcut/api/internal/config"
	"github.com/quietcut/api/internal/handler"
	"github.com/quietcut/api/internal/middleware"
	"github.com/quietcut/api/internal/service"
	"github.com/quietcut/api/internal/storage"
	"github.com/quietcut/api/internal/worker"
	ws "github.com/quietcut/api/internal/websocket"
	"github.com/quietcut/api/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Disk layout for job artifacts
	store, err := storage.NewStore(cfg.Server.WorkDir)
	if err != nil {
		log.Fatalf("Failed to prepare work directory: %v", err)
	}

	// Media tool gateway
	ffmpegClient := client.NewFFmpegClient(&cfg.FFmpeg)
	if !ffmpegClient.IsConfigured() {
		log.Println("Warning: no ffmpeg path configured, processing will fail")
	}

	// WebSocket hub for live job status
	hub := ws.NewHub()
	go hub.Run()

	// Job registry and scheduler
	jobService := service.NewJobService(store, time.Duration(cfg.Job.TTLMinutes)*time.Minute)
	defer jobService.Close()

	scheduler := worker.NewScheduler(jobService, store, ffmpegClient, hub, cfg.Processing)
	schedCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go scheduler.Run(schedCtx)

	// Handlers
	uploadHandler := handler.NewUploadHandler(jobService, scheduler, cfg.Upload)
	jobHandler := handler.NewJobHandler(jobService)

	// Body limit covers a full batch of maximum-size files; computed in
	// int64 and clamped so 32-bit builds don't overflow.
	bodyLimit := (int64(cfg.Upload.MaxFiles)*int64(cfg.Upload.MaxFileSizeMB) + 16) * 1024 * 1024
	if bodyLimit > math.MaxInt {
		bodyLimit = math.MaxInt
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    int(bodyLimit),
	})

	// Global middleware
	app.Use(recover.New())
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"ffmpeg": ffmpegClient.IsConfigured(),
			},
		})
	})

	// API routes
	api := app.Group("/api")
	api.Post("/jobs", middleware.UploadLimit(cfg.Upload.PerHour), uploadHandler.Create)
	api.Get("/jobs/:jobId", jobHandler.Status)
	api.Get("/jobs/:jobId/files/:name", jobHandler.Download)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")
		hub.HandleConnection(c, jobID)
	}))

	// Browser UI
	if cfg.Server.StaticDir != "" {
		if _, err := os.Stat(cfg.Server.StaticDir); err == nil {
			app.Static("/", cfg.Server.StaticDir)
		}
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		stopScheduler()
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

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, response.CodeServiceError, message, nil)
}
