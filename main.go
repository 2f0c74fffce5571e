// Package main provides the entry point for the photo moderation service
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/photo-moderation/app/handlers"
	"github.com/amirphl/photo-moderation/app/middleware"
	"github.com/amirphl/photo-moderation/app/router"
	"github.com/amirphl/photo-moderation/app/services"
	businessflow "github.com/amirphl/photo-moderation/business_flow"
	"github.com/amirphl/photo-moderation/config"
	"github.com/amirphl/photo-moderation/logging"
	"github.com/amirphl/photo-moderation/migrations"
	"github.com/amirphl/photo-moderation/repository"
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v3"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	server    *fiber.App
	logger    *zap.Logger
	stopFuncs []func()
}

func main() {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// photo-moderation token <username> prints an access token for local testing
	if len(os.Args) == 3 && os.Args[1] == "token" {
		if err := printAccessToken(cfg, logger, os.Args[2]); err != nil {
			logger.Fatal("Failed to issue token", zap.Error(err))
		}
		return
	}

	if err := initializeSentry(cfg.Sentry); err != nil {
		logger.Fatal("Failed to initialize Sentry", zap.Error(err))
	}

	app, err := initializeApplication(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-sigChan
	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	for _, fn := range app.stopFuncs {
		fn()
	}
	sentry.Flush(2 * time.Second)

	logger.Info("Server stopped")
}

func initializeSentry(cfg config.SentryConfig) error {
	if cfg.DSN == "" {
		return nil
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
	})
}

// initializeDatabase applies pending migrations and opens the pooled gorm connection
func initializeDatabase(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	if cfg.AutoMigrate {
		version, err := migrations.Up(cfg.DSN())
		if err != nil {
			return nil, err
		}
		logger.Info("Database schema is up to date", zap.Uint("version", version))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(zap.NewStdLog(logger.Named("gorm")), gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
	)
	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB
	if cfg.RedisPassword != "" {
		opt.Password = cfg.RedisPassword
	}

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis connection established", zap.Int("db", cfg.RedisDB))
	return rc, nil
}

// startCacheHealthMonitor periodically pings Redis until the returned function is called
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration, logger *zap.Logger) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(monitorCtx, 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					logger.Warn("Redis healthcheck failed", zap.Error(err))
				}
				c()
			}
		}
	}()
	return cancel
}

func newTokenService(cfg config.JWTConfig) (services.TokenService, error) {
	tokenService, err := services.NewTokenService(
		cfg.AccessTokenTTL,
		cfg.Issuer,
		cfg.Audience,
		cfg.UseRSAKeys,
		cfg.PrivateKey,
		cfg.PublicKey,
		cfg.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	return tokenService, nil
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig, logger *zap.Logger) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	stopFuncs = append(stopFuncs, func() { _ = sqlDB.Close() })
	reportDB := sqlx.NewDb(sqlDB, "postgres")

	rc, err := initializeCache(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	var tagCache services.TagCache = services.NoopTagCache{}
	probes := map[string]router.HealthProbe{
		"database": sqlDB.PingContext,
	}
	if rc != nil {
		tagCache = services.NewRedisTagCache(rc)
		probes["cache"] = func(ctx context.Context) error { return rc.Ping(ctx).Err() }
		stopFuncs = append(stopFuncs,
			startCacheHealthMonitor(context.Background(), rc, 30*time.Second, logger),
			func() { _ = rc.Close() },
		)
	}

	mediaStore, err := services.NewS3MediaStore(context.Background(), cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media store: %w", err)
	}

	publisher, err := services.NewEventPublisher(cfg.Messaging, logger)
	if err != nil {
		return nil, err
	}
	stopFuncs = append(stopFuncs, func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher", zap.Error(err))
		}
	})

	tokenService, err := newTokenService(cfg.JWT)
	if err != nil {
		return nil, err
	}

	// Repositories
	uow := repository.NewUnitOfWork(db)
	auditRepo := repository.NewAuditLogRepository(db)
	reportRepo := repository.NewReportRepository(reportDB)
	roleManager := services.NewRoleManager(repository.NewRoleRepository(db))

	if cfg.Bootstrap.AdminUsername != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := businessflow.EnsureAdminAccount(ctx, uow, roleManager,
			cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword, cfg.Security.BcryptCost, logger)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to ensure admin account: %w", err)
		}
	}

	// Flows
	moderationFlow := businessflow.NewPhotoModerationFlow(uow, reportRepo, auditRepo, mediaStore, publisher, logger)
	ownershipFlow := businessflow.NewPhotoOwnershipFlow(uow, auditRepo, mediaStore, publisher, cfg.Media, logger)
	tagFlow := businessflow.NewTagFlow(uow, auditRepo, tagCache, publisher, logger)
	roleAdminFlow := businessflow.NewRoleAdminFlow(uow, roleManager, auditRepo, publisher, logger)
	likeFlow := businessflow.NewLikeFlow(uow, auditRepo, publisher, logger)
	messageFlow := businessflow.NewMessageFlow(uow, auditRepo, publisher, logger)

	// Handlers
	appHandlers := router.Handlers{
		Admin:  handlers.NewAdminHandler(moderationFlow, roleAdminFlow, tagFlow, logger),
		Photos: handlers.NewUserPhotoHandler(ownershipFlow, tagFlow, logger),
		Social: handlers.NewSocialHandler(likeFlow, messageFlow, logger),
	}

	authMiddleware := middleware.NewAuthMiddleware(tokenService)
	appRouter := router.NewFiberRouter(cfg, appHandlers, authMiddleware, probes, logger)

	return &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		logger:    logger,
		stopFuncs: stopFuncs,
	}, nil
}

// printAccessToken signs a token carrying the stored roles of username
func printAccessToken(cfg *config.ProductionConfig, logger *zap.Logger, username string) error {
	cfg.Database.AutoMigrate = false
	db, err := initializeDatabase(cfg.Database, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := repository.NewUserRepository(db).ByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New(businessflow.MsgUserNotFound)
	}
	roles, err := services.NewRoleManager(repository.NewRoleRepository(db)).GetRoles(ctx, user)
	if err != nil {
		return err
	}

	tokenService, err := newTokenService(cfg.JWT)
	if err != nil {
		return err
	}
	token, err := tokenService.GenerateAccessToken(user.ID, user.Username, roles)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
