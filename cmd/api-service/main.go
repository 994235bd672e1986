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

	"backoffice-core/internal/admin"
	"backoffice-core/internal/config"
	"backoffice-core/internal/entity"
	"backoffice-core/internal/publisher"
	"backoffice-core/internal/queue"
	"backoffice-core/internal/repository"
	"backoffice-core/internal/sharding"
	"backoffice-core/pkg/logger"
	"backoffice-core/pkg/mysql"
	"backoffice-core/pkg/redis"
	"backoffice-core/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the admin API service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.New(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting API Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	mysqlCfg := mysql.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := mysql.NewDB(mysqlCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	telegramNotifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
	}

	// Initialize repositories
	accountRepo := repository.NewPlatformAccountRepository(db.DB)
	articleRepo := repository.NewArticleRepository(db.DB)
	logRepo := repository.NewPublishLogRepository(db.DB)
	stockRepo := repository.NewStockRepository(db.DB)
	sysConfigRepo := repository.NewSysConfigRepository(db.DB, redisClient.Client, appLogger)

	// Initialize the candle shard router for range queries
	tableMaker := sharding.NewTableMaker(db.DB, redisClient.Client, appLogger)
	klineRouter := sharding.NewRouter(db.DB, sharding.TableModel{
		PrototypeTable: entity.KlineTableName(entity.Kline1d),
		Columns:        entity.KlineColumns(),
		UniqueColumns:  entity.KlineUniqueColumns(),
	}, sharding.NewTimeBasedStrategy("trade_time", sharding.GranularityYear), tableMaker, appLogger)

	// Initialize the task broker
	broker := queue.NewBroker(redisClient.Client, appLogger, cfg.Redis.StreamMaxLen)

	// Initialize the publish service. The API side runs browsers only for
	// account verification and question fetching; article publishing goes
	// through the queue to the worker.
	browser := publisher.NewBrowser(cfg.Browser, appLogger)
	antiDetect := publisher.NewAntiDetect(cfg.AntiDetect, appLogger)
	handlers := make(map[string]publisher.Driver)
	for _, platform := range []string{entity.PlatformZhihu, entity.PlatformJuejin} {
		profile, ok := publisher.ProfileFor(platform)
		if !ok {
			appLogger.Fatal("Missing platform profile", logger.StringField("platform", platform))
		}
		handlers[platform] = publisher.NewHandler(profile, browser, antiDetect, appLogger)
	}
	publishSvc := publisher.NewService(accountRepo, articleRepo, logRepo, handlers, antiDetect, broker, telegramNotifier, appLogger)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	env := admin.NewEnvelope(cfg.App.Debug())

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")

	accountHandler := admin.NewAccountHandler(accountRepo, publishSvc, env, appLogger)
	accountHandler.RegisterRoutes(apiV1.Group("/accounts"))

	articleHandler := admin.NewArticleHandler(articleRepo, env, appLogger)
	articleHandler.RegisterRoutes(apiV1.Group("/articles"))

	publishHandler := admin.NewPublishHandler(publishSvc, logRepo, env, appLogger)
	publishHandler.RegisterRoutes(apiV1.Group("/publish"))

	syncHandler := admin.NewSyncHandler(broker, stockRepo, env, appLogger)
	syncHandler.RegisterRoutes(apiV1.Group("/sync"))

	configHandler := admin.NewConfigHandler(sysConfigRepo, env, appLogger)
	configHandler.RegisterRoutes(apiV1.Group("/configs"))

	marketHandler := admin.NewMarketHandler(stockRepo, klineRouter, env, appLogger)
	marketHandler.RegisterRoutes(apiV1.Group("/market"))

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

func main() {
	rootCmd := &cobra.Command{Use: "api-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing api-service CLI: %s\n", err)
		os.Exit(1)
	}
}
