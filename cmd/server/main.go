package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
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

	"github.com/rdmlabs/agent-api/internal/client"
	"github.com/rdmlabs/agent-api/internal/config"
	"github.com/rdmlabs/agent-api/internal/executor"
	"github.com/rdmlabs/agent-api/internal/handler"
	"github.com/rdmlabs/agent-api/internal/middleware"
	"github.com/rdmlabs/agent-api/internal/service"
	"github.com/rdmlabs/agent-api/internal/store"
	"github.com/rdmlabs/agent-api/internal/worker"
	ws "github.com/rdmlabs/agent-api/internal/websocket"
)

// @title          RDM Agent API
// @version        1.0
// @description    Payment-gated AI agent service on the Masumi protocol.
// @host           localhost:8000
// @BasePath       /
// @schemes        http https
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize external clients
	masumiClient := client.NewMasumiClient(&cfg.Masumi)
	agentClient := client.NewAgentClient(&cfg.OpenAI)
	if !masumiClient.IsConfigured() {
		log.Println("Info: payment service not configured, using mock payments")
	}
	if !agentClient.IsConfigured() {
		log.Println("Info: model API not configured, using mock execution")
	}

	// Initialize services
	jobStore := store.NewJobStore()
	agentExecutor := executor.NewAgentExecutor(agentClient)
	dispatcher := service.NewAsynqDispatcher(asynqClient)
	jobService := service.NewJobService(cfg, jobStore, masumiClient, agentExecutor, dispatcher, hub)
	stageTracker := service.NewStageTracker(jobStore, agentExecutor, hub)

	// Initialize handlers
	jobHandler := handler.NewJobHandler(jobService, cfg, validate)
	goalHandler := handler.NewGoalHandler(stageTracker, validate)

	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body} ${reqHeaders}\n"
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

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// MIP-003 agent surface
	app.Get("/health", jobHandler.Health)
	app.Get("/availability", jobHandler.Availability)
	app.Get("/input_schema", jobHandler.InputSchema)
	app.Get("/agent_metadata", jobHandler.AgentMetadata)
	app.Post("/start_job", rateLimiter.StartJobLimit(cfg.RateLimit.StartJobPerHour), jobHandler.StartJob)
	app.Get("/status", jobHandler.Status)

	// Accountability sub-workflow
	app.Post("/submit_reflection", rateLimiter.ReflectionLimit(cfg.RateLimit.ReflectionPerMin), goalHandler.SubmitReflection)
	app.Post("/complete_goal", rateLimiter.CompletionLimit(cfg.RateLimit.CompletionPerHour), goalHandler.CompleteGoal)
	app.Get("/goal_status", goalHandler.GoalStatus)

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

	// Start Asynq worker server
	go startWorkerServer(cfg, jobService)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		jobService.Shutdown()
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

func startWorkerServer(cfg *config.Config, jobService *service.JobService) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				service.QueueExecute: 10,
			},
			LogLevel: asynqLogLevel,
		},
	)

	executeWorker := worker.NewExecuteWorker(jobService)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeExecute, executeWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
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
