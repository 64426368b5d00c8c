package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/cascade-scheduler/configs"
	"github.com/maheshrc27/cascade-scheduler/internal/api/handlers"
	"github.com/maheshrc27/cascade-scheduler/internal/api/middleware"
	job "github.com/maheshrc27/cascade-scheduler/internal/jobs"
	"github.com/maheshrc27/cascade-scheduler/internal/logging"
	"github.com/maheshrc27/cascade-scheduler/internal/queue"
	"github.com/maheshrc27/cascade-scheduler/internal/repository"
	"github.com/maheshrc27/cascade-scheduler/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	slog.SetDefault(logging.New(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}
	if err := repository.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("Failed to prepare schema: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	opts := cfg.SchedulerOptions()
	clock := service.NewSystemClock()

	submissionRepo := repository.NewSubmissionRepository(db)

	postingService := service.NewPostingService(cfg.Posting, opts.Location, nil)
	calendarService := service.NewCalendarService(postingService, service.CalendarOptions{
		Location:   opts.Location,
		ChunkDays:  opts.ChunkDays,
		ChunkDelay: opts.ChunkDelay,
	}, clock, service.ContextSleep)
	cascadeService := service.NewCascadeService(calendarService, clock, service.CascadeOptions{
		Location:      opts.Location,
		CutoffHour:    opts.CutoffHour,
		InitialWindow: opts.InitialWindow,
		WindowStep:    opts.WindowStep,
		MaxWindow:     opts.MaxWindow,
	})

	var videoService service.VideoService
	if cfg.YoutubeAPIKey != "" {
		videoService, err = service.NewYoutubeService(context.Background(), cfg.YoutubeAPIKey)
		if err != nil {
			slog.Warn("YouTube lookups disabled", "error", err)
			videoService = nil
		}
	}

	scheduleService := service.NewScheduleService(db, submissionRepo, cascadeService, videoService, service.ScheduleOptions{
		PlatformOffset:   opts.PlatformOffset,
		DefaultPlatforms: opts.DefaultPlatforms,
	})

	var archive service.ReportArchive
	if cfg.R2Enabled() {
		r2Service, err := service.NewR2Service(context.Background(), cfg.R2)
		if err != nil {
			slog.Warn("digest archiving disabled", "error", err)
		} else {
			archive = r2Service
		}
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("request failed", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	calendar := handlers.NewCalendarHandler(calendarService, clock)
	api.Get("/calendar/posts", calendar.ListPosts)
	api.Get("/calendar/topics", calendar.Topics)
	api.Get("/calendar/analysis", calendar.Analysis)

	schedule := handlers.NewScheduleHandler(scheduleService, client)
	api.Get("/schedule/next", schedule.Next)
	api.Post("/schedule", schedule.Schedule)
	api.Get("/schedule/submissions", schedule.ListSubmissions)

	// cron jobs
	digestJob := job.NewCalendarDigestJob(calendarService, archive, cfg.DigestDays())
	sweepJob := job.NewSubmissionSweepJob(submissionRepo, client, cfg.SweepStale())

	//queue
	queueW := queue.NewQueue(submissionRepo, postingService)

	c := cron.New()
	if err := c.AddFunc(cfg.DigestCron, digestJob.Run); err != nil {
		log.Fatalf("Invalid DIGEST_CRON %q: %v", cfg.DigestCron, err)
	}
	if err := c.AddFunc(cfg.SweepCron, sweepJob.Run); err != nil {
		log.Fatalf("Invalid SWEEP_CRON %q: %v", cfg.SweepCron, err)
	}
	c.Start()
	defer c.Stop()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			// Submissions go out one at a time to stay under the posting
			// service's rate limits.
			Concurrency: 1,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeSubmitPost, queueW.HandleSubmitPostTask)

		slog.Info("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	slog.Info("Server is running", "port", cfg.Port, "timezone", opts.Location.String())

	gracefulShutdown(app)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("Failed to shut down server", "error", err)
	}

	slog.Info("Server shutdown complete.")
}
