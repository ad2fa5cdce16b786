package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hugh/langhub/pkg/util"
	"github.com/spf13/viper"
)

const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Encryption EncryptionConfig
	RateLimit  RateLimitConfig
	Access     AccessConfig
	Worker     WorkerConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Env         string
	LogLevel    string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxIdleConns int
	MaxOpenConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// EncryptionConfig holds the age identity used to open license payloads.
type EncryptionConfig struct {
	Key string
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

type AccessConfig struct {
	ResolveTimeoutMS int
	LockBackend      string
	LockTTLSeconds   int
}

type WorkerConfig struct {
	Concurrency           int
	BillingSyncCron       string
	LicenseCheckCron      string
	LicenseExpiryWarnDays int
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (j *JWTConfig) Expiry() time.Duration {
	return time.Duration(j.ExpiryHours) * time.Hour
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

func (r *RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

func (a *AccessConfig) ResolveTimeout() time.Duration {
	return time.Duration(a.ResolveTimeoutMS) * time.Millisecond
}

func (a *AccessConfig) LockTTL() time.Duration {
	return time.Duration(a.LockTTLSeconds) * time.Second
}

func (w *WorkerConfig) LicenseExpiryWarning() time.Duration {
	return time.Duration(w.LicenseExpiryWarnDays) * 24 * time.Hour
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Access.ResolveTimeoutMS <= 0 {
		errs = append(errs, errors.New("ACCESS_RESOLVE_TIMEOUT_MS must be positive"))
	}
	switch c.Access.LockBackend {
	case LockBackendLocal, LockBackendRedis:
	default:
		errs = append(errs, fmt.Errorf("ACCESS_LOCK_BACKEND must be %q or %q, got %q", LockBackendLocal, LockBackendRedis, c.Access.LockBackend))
	}
	if c.Access.LockTTLSeconds <= 0 {
		errs = append(errs, errors.New("ACCESS_LOCK_TTL_SECONDS must be positive"))
	}
	if err := util.ValidateCronExpr(c.Worker.BillingSyncCron); err != nil {
		errs = append(errs, fmt.Errorf("BILLING_SYNC_CRON: %w", err))
	}
	if err := util.ValidateCronExpr(c.Worker.LicenseCheckCron); err != nil {
		errs = append(errs, fmt.Errorf("LICENSE_CHECK_CRON: %w", err))
	}
	if !c.Server.IsDevelopment() && c.JWT.Secret == "change-me-in-production" {
		errs = append(errs, errors.New("JWT_SECRET must be set outside development"))
	}
	return errors.Join(errs...)
}

func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "langhub")
	v.SetDefault("DATABASE_PASSWORD", "langhub_secret")
	v.SetDefault("DATABASE_NAME", "langhub")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 10)
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 100)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("ACCESS_RESOLVE_TIMEOUT_MS", 2000)
	v.SetDefault("ACCESS_LOCK_BACKEND", LockBackendLocal)
	v.SetDefault("ACCESS_LOCK_TTL_SECONDS", 10)
	v.SetDefault("WORKER_CONCURRENCY", 10)
	v.SetDefault("BILLING_SYNC_CRON", "*/15 * * * *")
	v.SetDefault("LICENSE_CHECK_CRON", "0 6 * * *")
	v.SetDefault("LICENSE_EXPIRY_WARN_DAYS", 14)

	// Load from .env file if present
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Server: ServerConfig{
			Host:        v.GetString("SERVER_HOST"),
			Port:        v.GetInt("SERVER_PORT"),
			Env:         v.GetString("SERVER_ENV"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("DATABASE_HOST"),
			Port:         v.GetInt("DATABASE_PORT"),
			User:         v.GetString("DATABASE_USER"),
			Password:     v.GetString("DATABASE_PASSWORD"),
			Name:         v.GetString("DATABASE_NAME"),
			SSLMode:      v.GetString("DATABASE_SSLMODE"),
			MaxIdleConns: v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			MaxOpenConns: v.GetInt("DATABASE_MAX_OPEN_CONNS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		Encryption: EncryptionConfig{
			Key: v.GetString("ENCRYPTION_KEY"),
		},
		RateLimit: RateLimitConfig{
			Requests:      v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Access: AccessConfig{
			ResolveTimeoutMS: v.GetInt("ACCESS_RESOLVE_TIMEOUT_MS"),
			LockBackend:      strings.ToLower(v.GetString("ACCESS_LOCK_BACKEND")),
			LockTTLSeconds:   v.GetInt("ACCESS_LOCK_TTL_SECONDS"),
		},
		Worker: WorkerConfig{
			Concurrency:           v.GetInt("WORKER_CONCURRENCY"),
			BillingSyncCron:       v.GetString("BILLING_SYNC_CRON"),
			LicenseCheckCron:      v.GetString("LICENSE_CHECK_CRON"),
			LicenseExpiryWarnDays: v.GetInt("LICENSE_EXPIRY_WARN_DAYS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
