package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/langhub/internal/api"
	"github.com/hugh/langhub/internal/auth"
	"github.com/hugh/langhub/internal/database"
	"github.com/hugh/langhub/internal/license"
	"github.com/hugh/langhub/internal/membership/lock"
	"github.com/hugh/langhub/pkg/config"
	"github.com/hugh/langhub/pkg/crypto"
	"github.com/hugh/langhub/pkg/queue"
	"github.com/hugh/langhub/pkg/util"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
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

	logger.Info("starting langhub server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
		"lock_backend", cfg.Access.LockBackend,
	)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if cfg.Server.IsDevelopment() {
		if err := database.AutoMigrate(db); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		if cfg.Access.LockBackend == config.LockBackendRedis {
			logger.Error("redis is required by the redis lock backend", "error", err)
			os.Exit(1)
		}
		logger.Warn("failed to connect to Redis", "error", err)
		redisClient = nil
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Access.LockBackend == config.LockBackendRedis {
		locker = lock.NewRedisLocker(redisClient, cfg.Access.LockTTL(), logger)
	}

	// Background jobs are best effort from the API's point of view
	var asynqClient *asynq.Client
	if redisClient != nil {
		asynqClient = queue.NewClient(&cfg.Redis)
	}

	encryptor, err := newEncryptor(cfg, logger)
	if err != nil {
		logger.Error("failed to create encryptor", "error", err)
		os.Exit(1)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)

	router := api.NewRouter(api.RouterConfig{
		DB:             db,
		Redis:          redisClient,
		Logger:         logger,
		JWTService:     jwtService,
		AuthService:    authService,
		TokenTTL:       cfg.JWT.Expiry(),
		Licenses:       license.NewService(db, encryptor),
		Locker:         locker,
		AsynqClient:    asynqClient,
		ResolveTimeout: cfg.Access.ResolveTimeout(),
		AllowedOrigins: cfg.Server.CORSOrigins,
		RateLimitReqs:  cfg.RateLimit.Requests,
		RateLimitEvery: cfg.RateLimit.Window(),
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if asynqClient != nil {
		asynqClient.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("server stopped")
}

// newEncryptor opens the configured license identity. Development without a
// key gets a throwaway identity, so licenses sealed to it do not survive a
// restart.
func newEncryptor(cfg *config.Config, logger *slog.Logger) (*crypto.Encryptor, error) {
	if cfg.Encryption.Key == "" && cfg.Server.IsDevelopment() {
		logger.Warn("ENCRYPTION_KEY not set, using a generated identity")
		return crypto.NewEphemeralEncryptor()
	}
	return crypto.NewEncryptor(cfg.Encryption.Key)
}
