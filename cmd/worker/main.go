package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/langhub/internal/billing"
	"github.com/hugh/langhub/internal/database"
	"github.com/hugh/langhub/internal/license"
	"github.com/hugh/langhub/internal/tasks"
	"github.com/hugh/langhub/pkg/config"
	"github.com/hugh/langhub/pkg/crypto"
	"github.com/hugh/langhub/pkg/queue"
	"github.com/hugh/langhub/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env, cfg.Server.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting langhub worker", "concurrency", cfg.Worker.Concurrency)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var encryptor *crypto.Encryptor
	if cfg.Encryption.Key == "" && cfg.Server.IsDevelopment() {
		logger.Warn("ENCRYPTION_KEY not set, license checks will not read stored licenses")
		encryptor, err = crypto.NewEphemeralEncryptor()
	} else {
		encryptor, err = crypto.NewEncryptor(cfg.Encryption.Key)
	}
	if err != nil {
		logger.Error("failed to create encryptor", "error", err)
		os.Exit(1)
	}

	handler := tasks.NewHandler(
		billing.NewService(db),
		license.NewService(db, encryptor),
		cfg.Worker.LicenseExpiryWarning(),
		logger,
	)

	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	srv := queue.NewServer(&cfg.Redis, cfg.Worker.Concurrency, logger)
	scheduler := queue.NewScheduler(&cfg.Redis)

	licenseCheck, err := tasks.NewLicenseCheckTask(tasks.LicenseCheckPayload{Trigger: tasks.TriggerScheduled})
	if err != nil {
		logger.Error("failed to build license check task", "error", err)
		os.Exit(1)
	}

	schedules := []struct {
		spec string
		task *asynq.Task
	}{
		{cfg.Worker.BillingSyncCron, tasks.NewSyncSubscriptionsTask()},
		{cfg.Worker.LicenseCheckCron, licenseCheck},
	}
	now := time.Now().UTC()
	for _, s := range schedules {
		if _, err := scheduler.Register(s.spec, s.task, asynq.Queue(queue.QueueLow)); err != nil {
			logger.Error("failed to register schedule", "task", s.task.Type(), "spec", s.spec, "error", err)
			os.Exit(1)
		}
		next, _ := util.NextCronTime(s.spec, now)
		logger.Info("scheduled task", "task", s.task.Type(), "spec", s.spec, "next_run", next)
	}

	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	if err := srv.Start(mux); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	logger.Info("worker started, waiting for tasks...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	scheduler.Shutdown()
	srv.Shutdown()

	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("worker stopped")
}
