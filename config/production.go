// Package config provides configuration management and environment variable handling for the application
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database  DatabaseConfig  `json:"database"`
	Server    ServerConfig    `json:"server"`
	Security  SecurityConfig  `json:"security"`
	JWT       JWTConfig       `json:"jwt"`
	Logging   LoggingConfig   `json:"logging"`
	Metrics   MetricsConfig   `json:"metrics"`
	Cache     CacheConfig     `json:"cache"`
	Storage   StorageConfig   `json:"storage"`
	Messaging MessagingConfig `json:"messaging"`
	Sentry    SentryConfig    `json:"sentry"`
	Media     MediaConfig     `json:"media"`
	Bootstrap BootstrapConfig `json:"bootstrap"`
}

type DatabaseConfig struct {
	Host            string        `json:"host" env:"DB_HOST" envDefault:"localhost"`
	Port            int           `json:"port" env:"DB_PORT" envDefault:"5432"`
	Name            string        `json:"name" env:"DB_NAME" envDefault:"photo_moderation"`
	User            string        `json:"user" env:"DB_USER" envDefault:"postgres"`
	Password        string        `json:"-" env:"DB_PASSWORD"`
	SSLMode         string        `json:"ssl_mode" env:"DB_SSL_MODE" envDefault:"disable"`
	MaxOpenConns    int           `json:"max_open_conns" env:"DB_MAX_OPEN_CONNS" envDefault:"50"`
	MaxIdleConns    int           `json:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME" envDefault:"15m"`
	SlowQueryTime   time.Duration `json:"slow_query_time" env:"DB_SLOW_QUERY_TIME" envDefault:"500ms"`
	AutoMigrate     bool          `json:"auto_migrate" env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

// DSN returns the keyword/value connection string understood by pgx and lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type ServerConfig struct {
	Host            string        `json:"host" env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `json:"port" env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `json:"read_timeout" env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `json:"write_timeout" env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `json:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	BodyLimit       int           `json:"body_limit" env:"SERVER_BODY_LIMIT" envDefault:"12582912"`
	TrustedProxies  []string      `json:"trusted_proxies" env:"SERVER_TRUSTED_PROXIES" envSeparator:","`
	ProxyHeader     string        `json:"proxy_header" env:"SERVER_PROXY_HEADER" envDefault:"X-Forwarded-For"`
}

type SecurityConfig struct {
	AllowedOrigins   []string `json:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:4200"`
	AllowedMethods   []string `json:"allowed_methods" env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `json:"allowed_headers" env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Origin,Content-Type,Accept,Authorization,X-Request-ID"`
	AllowCredentials bool     `json:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	GlobalRateLimit  int      `json:"global_rate_limit" env:"GLOBAL_RATE_LIMIT" envDefault:"300"` // requests per minute
	BcryptCost       int      `json:"bcrypt_cost" env:"BCRYPT_COST" envDefault:"12"`
}

type JWTConfig struct {
	SecretKey      string        `json:"-" env:"JWT_SECRET_KEY"`
	PrivateKey     string        `json:"-" env:"JWT_PRIVATE_KEY"`
	PublicKey      string        `json:"-" env:"JWT_PUBLIC_KEY"`
	UseRSAKeys     bool          `json:"use_rsa_keys" env:"JWT_USE_RSA_KEYS" envDefault:"false"`
	AccessTokenTTL time.Duration `json:"access_token_ttl" env:"JWT_ACCESS_TOKEN_TTL" envDefault:"24h"`
	Issuer         string        `json:"issuer" env:"JWT_ISSUER" envDefault:"photo-moderation"`
	Audience       string        `json:"audience" env:"JWT_AUDIENCE" envDefault:"photo-moderation-api"`
}

type LoggingConfig struct {
	Level        string `json:"level" env:"LOG_LEVEL" envDefault:"info"`  // debug, info, warn, error
	Format       string `json:"format" env:"LOG_FORMAT" envDefault:"json"` // json, console
	FilePath     string `json:"file_path" env:"LOG_FILE_PATH"`
	MaxSize      int    `json:"max_size" env:"LOG_MAX_SIZE" envDefault:"100"` // MB
	MaxBackups   int    `json:"max_backups" env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAge       int    `json:"max_age" env:"LOG_MAX_AGE" envDefault:"30"` // days
	Compress     bool   `json:"compress" env:"LOG_COMPRESS" envDefault:"true"`
	EnableCaller bool   `json:"enable_caller" env:"LOG_ENABLE_CALLER" envDefault:"true"`

	EnableAccessLog bool `json:"enable_access_log" env:"LOG_ENABLE_ACCESS_LOG" envDefault:"true"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `json:"path" env:"METRICS_PATH" envDefault:"/metrics"`
}

type CacheConfig struct {
	Enabled       bool   `json:"enabled" env:"CACHE_ENABLED" envDefault:"false"`
	RedisURL      string `json:"redis_url" env:"CACHE_REDIS_URL"`
	RedisPassword string `json:"-" env:"CACHE_REDIS_PASSWORD"`
	RedisDB       int    `json:"redis_db" env:"CACHE_REDIS_DB" envDefault:"0"`
}

type StorageConfig struct {
	Endpoint        string `json:"endpoint" env:"S3_ENDPOINT"`
	Region          string `json:"region" env:"S3_REGION" envDefault:"us-east-1"`
	Bucket          string `json:"bucket" env:"S3_BUCKET"`
	AccessKeyID     string `json:"-" env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `json:"-" env:"S3_SECRET_ACCESS_KEY"`
	PublicBaseURL   string `json:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
	UsePathStyle    bool   `json:"use_path_style" env:"S3_USE_PATH_STYLE" envDefault:"false"`
}

type MessagingConfig struct {
	RabbitMQURL string `json:"-" env:"RABBITMQ_URL"`
	QueueName   string `json:"queue_name" env:"RABBITMQ_QUEUE_NAME" envDefault:"photo_moderation_events"`
}

type SentryConfig struct {
	DSN              string  `json:"-" env:"SENTRY_DSN"`
	Environment      string  `json:"environment" env:"SENTRY_ENVIRONMENT" envDefault:"production"`
	Release          string  `json:"release" env:"SENTRY_RELEASE"`
	TracesSampleRate float64 `json:"traces_sample_rate" env:"SENTRY_TRACES_SAMPLE_RATE" envDefault:"0"`
}

type MediaConfig struct {
	MaxUploadBytes int64 `json:"max_upload_bytes" env:"MEDIA_MAX_UPLOAD_BYTES" envDefault:"10485760"`
	MaxWidth       int   `json:"max_width" env:"MEDIA_MAX_WIDTH" envDefault:"1024"`
	MaxSourcePixel int   `json:"max_source_pixel" env:"MEDIA_MAX_SOURCE_PIXEL" envDefault:"8000"`
	JPEGQuality    int   `json:"jpeg_quality" env:"MEDIA_JPEG_QUALITY" envDefault:"85"`
}

// BootstrapConfig names the admin account ensured at startup. Empty username skips it.
type BootstrapConfig struct {
	AdminUsername string `json:"admin_username" env:"BOOTSTRAP_ADMIN_USERNAME"`
	AdminPassword string `json:"-" env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &ProductionConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration from environment: %w", err)
	}

	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile loads .env (or ENV_FILE) when present. Variables already set win.
func loadEnvFile() error {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errors []string

	if cfg.Database.Host == "" {
		errors = append(errors, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		errors = append(errors, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		errors = append(errors, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		errors = append(errors, "DB_USER is required")
	}

	if cfg.JWT.UseRSAKeys {
		if cfg.JWT.PrivateKey == "" || cfg.JWT.PublicKey == "" {
			errors = append(errors, "JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are required when JWT_USE_RSA_KEYS is set")
		}
	} else if len(cfg.JWT.SecretKey) < 32 {
		errors = append(errors, "JWT_SECRET_KEY must be at least 32 characters long")
	}
	if cfg.JWT.AccessTokenTTL <= 0 {
		errors = append(errors, "JWT_ACCESS_TOKEN_TTL must be positive")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 {
		errors = append(errors, "SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		errors = append(errors, "SERVER_WRITE_TIMEOUT must be positive")
	}

	if cfg.Security.BcryptCost < 10 || cfg.Security.BcryptCost > 14 {
		errors = append(errors, "BCRYPT_COST must be between 10 and 14")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if cfg.Logging.Level != "" && !slices.Contains(validLevels, cfg.Logging.Level) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %v", validLevels))
	}

	if cfg.Cache.Enabled && cfg.Cache.RedisURL == "" {
		errors = append(errors, "CACHE_REDIS_URL is required when cache is enabled")
	}

	if cfg.Storage.Bucket == "" {
		errors = append(errors, "S3_BUCKET is required")
	}

	if cfg.Media.MaxWidth <= 0 {
		errors = append(errors, "MEDIA_MAX_WIDTH must be positive")
	}
	if cfg.Media.MaxUploadBytes <= 0 {
		errors = append(errors, "MEDIA_MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.Media.JPEGQuality < 1 || cfg.Media.JPEGQuality > 100 {
		errors = append(errors, "MEDIA_JPEG_QUALITY must be between 1 and 100")
	}

	if cfg.Bootstrap.AdminUsername != "" && len(cfg.Bootstrap.AdminPassword) < 8 {
		errors = append(errors, "BOOTSTRAP_ADMIN_PASSWORD must be at least 8 characters long")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}
