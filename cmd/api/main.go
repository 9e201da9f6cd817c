package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/perpexbistro/ride-hailing/internal/api/handlers"
	"github.com/perpexbistro/ride-hailing/internal/api/routes"
	"github.com/perpexbistro/ride-hailing/internal/auth"
	"github.com/perpexbistro/ride-hailing/internal/config"
	"github.com/perpexbistro/ride-hailing/internal/identifier"
	"github.com/perpexbistro/ride-hailing/internal/repository/postgres"
	"github.com/perpexbistro/ride-hailing/internal/service/earnings"
	"github.com/perpexbistro/ride-hailing/internal/service/matching"
	"github.com/perpexbistro/ride-hailing/internal/service/payment"
	"github.com/perpexbistro/ride-hailing/internal/service/pricing"
	"github.com/perpexbistro/ride-hailing/internal/service/receipts"
	"github.com/perpexbistro/ride-hailing/internal/service/rides"
	"github.com/perpexbistro/ride-hailing/pkg/cache"
	"github.com/perpexbistro/ride-hailing/pkg/database"
	"github.com/perpexbistro/ride-hailing/pkg/logger"
	"github.com/perpexbistro/ride-hailing/pkg/monitoring"
)

const poolStatsInterval = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting ride kernel",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
	)

	// Initialize New Relic
	nrApp, err := monitoring.New(monitoring.Config{
		LicenseKey: cfg.NewRelic.LicenseKey,
		AppName:    cfg.NewRelic.AppName,
		Enabled:    cfg.NewRelic.Enabled,
		LogLevel:   cfg.NewRelic.LogLevel,
	})
	if err != nil {
		appLogger.Warn("Failed to initialize New Relic", logger.Err(err))
		nrApp = nil
	} else if nrApp.IsEnabled() {
		appLogger.Info("New Relic APM initialized", logger.String("app_name", cfg.NewRelic.AppName))
	} else {
		appLogger.Info("New Relic APM disabled")
	}
	defer nrApp.Shutdown(10 * time.Second)

	metrics := monitoring.NewMetrics()
	recorder := monitoring.NewRecorder(nrApp, metrics)

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cache.Config{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		MaxRetries:  cfg.Redis.MaxRetries,
		PoolSize:    cfg.Redis.PoolSize,
		MinIdleConn: cfg.Redis.MinIdleConn,
		DialTimeout: cfg.Redis.DialTimeout,
		ReadTimeout: cfg.Redis.ReadTimeout,
	})
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", logger.Err(err))
	}
	defer cache.Close(redisClient)
	store := cache.NewStore(redisClient, "ride-kernel")

	appLogger.Info("Connected to Redis")

	// Initialize PostgreSQL
	dbPort, err := strconv.Atoi(cfg.Database.Port)
	if err != nil {
		appLogger.Fatal("Invalid DB_PORT", logger.String("port", cfg.Database.Port), logger.Err(err))
	}
	db, err := database.NewPostgresDB(context.Background(), database.Config{
		Host:        cfg.Database.Host,
		Port:        dbPort,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		DBName:      cfg.Database.Name,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConnections,
		MaxIdle:     cfg.Database.MaxIdleConns,
		MaxLifetime: cfg.Database.MaxLifetime,
	})
	if err != nil {
		appLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			appLogger.Fatal("Failed to apply schema", logger.Err(err))
		}
		appLogger.Info("Database schema applied")
	}

	appLogger.Info("Connected to PostgreSQL")

	// Repositories
	rideRepo := postgres.NewRideRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	riderRepo := postgres.NewRiderRepository(db)

	codes := identifier.NewGenerator(
		identifier.Config{Length: cfg.Identifier.Length, MaxAttempts: cfg.Identifier.MaxAttempts},
		identifier.NewReservationChecker(store, cfg.Identifier.ReservationTTL, identifier.NewSQLChecker(db, "rides", "code")),
		identifier.WithLogger(appLogger),
	)

	pricingConfig := pricing.Config{BaseFare: cfg.Pricing.BaseFare, PerKMRate: cfg.Pricing.PerKMRate}

	surge, err := newSurgeSchedule(cfg)
	if err != nil {
		appLogger.Fatal("Invalid surge schedule", logger.Err(err))
	}

	h := &handlers.Handlers{
		Rides: rides.NewService(rideRepo, driverRepo, riderRepo, codes, appLogger, recorder,
			rides.Config{CodePrefix: cfg.Identifier.RidePrefix, Surge: surge}),
		Matching: matching.NewService(driverRepo, appLogger, recorder, matching.Config{MaxResults: cfg.Matching.MaxResults}),
		Pricing:  pricing.NewService(rideRepo, appLogger, recorder, pricingConfig),
		Payments: payment.NewService(rideRepo, appLogger, recorder),
		Earnings: earnings.NewService(rideRepo, driverRepo, appLogger, earnings.Config{WindowDays: cfg.Earnings.WindowDays}),
		Receipts: receipts.NewService(rideRepo, riderRepo, driverRepo, appLogger),
		Logger:   appLogger,
	}

	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry)
	if err != nil {
		appLogger.Fatal("Failed to create token manager", logger.Err(err))
	}

	// Initialize Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	opts := routes.Options{
		Tokens:   tokens,
		Resolver: auth.NewProfileResolver(riderRepo, driverRepo),
		Metrics:  metrics,
		Logger:   appLogger,
		Health: map[string]routes.HealthChecker{
			"redis":    store.Ping,
			"postgres": db.PingContext,
		},
	}
	if cfg.Features.EnableIdempotency {
		opts.Idempotency = store
		opts.IdempotencyTTL = cfg.Cache.TTLIdempotency
	}

	var nrApplication *newrelic.Application
	if nrApp.IsEnabled() {
		nrApplication = nrApp.Application
	}
	routes.SetupRoutes(router, h, nrApplication, opts)

	appLogger.Info("Routes configured")

	statsCtx, stopStats := context.WithCancel(context.Background())
	defer stopStats()
	go func() {
		ticker := time.NewTicker(poolStatsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-statsCtx.Done():
				return
			case <-ticker.C:
				nrApp.RecordDatabasePoolStats(database.PoolStats(db))
				nrApp.RecordRedisPoolStats(cache.GetClientStats(redisClient))
			}
		}
	}()

	// Create HTTP server
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("Server starting", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", logger.Err(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.Err(err))
	}

	appLogger.Info("Server stopped gracefully")
}

func newSurgeSchedule(cfg *config.Config) (*pricing.SurgeSchedule, error) {
	windows, err := pricing.ParseSurgeWindows(cfg.Pricing.SurgeSchedule)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Pricing.SurgeTimezone)
	if err != nil {
		return nil, err
	}

	opts := []pricing.SurgeOption{pricing.WithLocation(loc)}
	if !cfg.Features.EnableSurgePricing {
		opts = append(opts, pricing.Disabled())
	}
	return pricing.NewSurgeSchedule(windows, opts...)
}
