package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/tilapp/til/internal/config"
	"github.com/tilapp/til/internal/database"
	"github.com/tilapp/til/internal/logger"
	"github.com/tilapp/til/internal/repositories"
	"github.com/tilapp/til/internal/tasks"
	"go.uber.org/zap"
)

// purgeTimeout bounds a single purge run
const purgeTimeout = time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting TIL worker")

	// Connect to database
	db, err := database.Connect(context.Background(), cfg.DSN(), database.DefaultRetryPolicy, logger.Logger)
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Schedule the purge of expired credentials
	purger := tasks.NewPurger(
		repositories.NewSessionRepository(db),
		repositories.NewResetPasswordTokenRepository(db),
		cfg.ResetTokenTTL,
		logger.Logger,
	)
	scheduler := cron.New()
	if _, err := purger.Schedule(scheduler, tasks.PurgeSchedule, purgeTimeout); err != nil {
		logger.Logger.Fatal("Failed to schedule purge", zap.Error(err))
	}
	scheduler.Start()

	// Create Asynq server
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Queues: map[string]int{
				tasks.QueueImmediate: 5,
				"default":            1,
			},
		},
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	tasks.NewWorker(tasks.NewSMTPMailer(cfg.SMTP), logger.Logger).Register(mux)

	// Start worker
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Logger.Fatal("Failed to start worker", zap.Error(err))
		}
	}()

	logger.Logger.Info("Worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down worker...")
	<-scheduler.Stop().Done()
	srv.Shutdown()
	logger.Logger.Info("Worker exited")
}
