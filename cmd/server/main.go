package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vansales-service/config"
	"vansales-service/internal/api"
	"vansales-service/internal/bigcommerce"
	"vansales-service/internal/broker"
	"vansales-service/internal/redisclient"
	"vansales-service/internal/service"
	"vansales-service/internal/sheets"
	"vansales-service/internal/store"
	"vansales-service/internal/util"
	"vansales-service/internal/worker"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, util.ServiceName); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting vansales service")

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := runMigrations(cfg.Database.URL, logger); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected")

	readiness := map[string]api.ReadinessCheck{
		"postgres": func(ctx context.Context) error { return db.GetDB().PingContext(ctx) },
	}

	var (
		idempotency service.IdempotencyStore
		locker      service.Locker
	)
	if cfg.Redis.Addr != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("Redis unavailable, idempotency keys and resync lock disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			idempotency = redisClient
			locker = redisClient
			readiness["redis"] = redisClient.Ping
			logger.Info("Redis connected")
		}
	}

	var publisher service.EventPublisher = broker.NoopPublisher{}
	var producer *broker.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	} else {
		logger.Info("No Kafka brokers configured, order events disabled")
	}

	gatewayClient := util.NewHTTPClient(cfg.BigCommerce.Timeout)
	newGateway := func(creds bigcommerce.Credentials) (service.Gateway, error) {
		client, err := bigcommerce.NewClient(cfg.BigCommerce.APIURL, creds, gatewayClient)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	settingsService := service.NewSettingsService(db, service.SettingsDefaults{
		BigCommerce: bigcommerce.Credentials{
			StoreHash: cfg.BigCommerce.StoreHash,
			Token:     cfg.BigCommerce.AccessToken,
		},
		WebhookURL: cfg.Sheets.WebhookURL,
	}, newGateway)
	mirror := sheets.NewMirror(util.NewHTTPClient(cfg.Sheets.Timeout))

	orderService := service.NewOrderService(db, db, db, settingsService, mirror, publisher, idempotency)
	catalogService := service.NewCatalogService(db, settingsService, publisher, locker)
	userService := service.NewUserService(db)
	authService := service.NewAuthService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var activityWorker *worker.ActivityWorker
	if producer != nil {
		activityConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
		activityWorker = worker.NewActivityWorker(activityConsumer, db)
		go func() {
			if err := activityWorker.Start(workerCtx); err != nil {
				logger.Error("Activity worker error", zap.Error(err))
			}
		}()
	}

	scheduler := worker.NewResyncScheduler(catalogService, cfg.Catalog.ResyncSchedule)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start resync scheduler", zap.Error(err))
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(orderService, catalogService, userService, authService, settingsService, api.Options{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		AllowUserHeader: cfg.Auth.AllowUserHeader,
		ReadinessChecks: readiness,
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	scheduler.Stop()
	workerCancel()
	if activityWorker != nil {
		if err := activityWorker.Stop(); err != nil {
			logger.Warn("Error stopping activity worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

func runMigrations(databaseURL string, logger *zap.Logger) error {
	migrator, err := store.NewMigrator(databaseURL, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()
	return migrator.Up()
}
