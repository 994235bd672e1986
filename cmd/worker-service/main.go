package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"backoffice-core/internal/config"
	"backoffice-core/internal/entity"
	"backoffice-core/internal/market"
	"backoffice-core/internal/publisher"
	"backoffice-core/internal/queue"
	"backoffice-core/internal/repository"
	"backoffice-core/internal/scheduler"
	"backoffice-core/internal/sharding"
	"backoffice-core/internal/syncer"
	"backoffice-core/pkg/common"
	"backoffice-core/pkg/logger"
	"backoffice-core/pkg/mysql"
	"backoffice-core/pkg/redis"
	"backoffice-core/pkg/telegram"

	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the worker service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	appLogger.Info("Starting Worker Service", logger.Field("name", cfg.App.Name))

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
	sectorRepo := repository.NewSectorRepository(db.DB)

	// Initialize the candle shard router
	tableMaker := sharding.NewTableMaker(db.DB, redisClient.Client, appLogger)
	klineRouter := sharding.NewRouter(db.DB, sharding.TableModel{
		PrototypeTable: entity.KlineTableName(entity.Kline1d),
		Columns:        entity.KlineColumns(),
		UniqueColumns:  entity.KlineUniqueColumns(),
	}, sharding.NewTimeBasedStrategy("trade_time", sharding.GranularityYear), tableMaker, appLogger)

	// Initialize the task broker and market syncer
	broker := queue.NewBroker(redisClient.Client, appLogger, cfg.Redis.StreamMaxLen)
	marketClient := market.NewClient(cfg.Market, appLogger)
	syncSvc := syncer.NewService(cfg.Syncer, marketClient, stockRepo, sectorRepo, klineRouter, broker, telegramNotifier, appLogger)

	// Initialize the publish service with one handler per supported platform
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

	// Register task handlers
	consumer := queue.NewConsumer(redisClient.Client, broker, appLogger, cfg.Worker.TaskTimeout)

	consumer.Register(queue.TaskSyncStockList, func(ctx context.Context, task *queue.Task) error {
		return syncSvc.SyncStockList(ctx)
	})
	consumer.Register(queue.TaskSyncIndustryList, func(ctx context.Context, task *queue.Task) error {
		return syncSvc.SyncIndustryList(ctx)
	})
	consumer.Register(queue.TaskSyncConceptList, func(ctx context.Context, task *queue.Task) error {
		return syncSvc.SyncConceptList(ctx)
	})
	consumer.Register(queue.TaskFanoutIndustryRelation, func(ctx context.Context, task *queue.Task) error {
		return syncSvc.SyncIndustryRelation(ctx)
	})
	consumer.Register(queue.TaskFanoutConceptRelation, func(ctx context.Context, task *queue.Task) error {
		return syncSvc.SyncConceptRelation(ctx)
	})
	consumer.Register(queue.TaskFanoutKline1D, func(ctx context.Context, task *queue.Task) error {
		return syncSvc.SyncKline1D(ctx)
	})
	consumer.Register(queue.TaskSyncIndustryRelation, func(ctx context.Context, task *queue.Task) error {
		var payload queue.SyncSectorRelationPayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return fmt.Errorf("invalid industry relation payload: %w", err)
		}
		return syncSvc.SyncSingleIndustryRelation(ctx, payload.SectorCode)
	})
	consumer.Register(queue.TaskSyncConceptRelation, func(ctx context.Context, task *queue.Task) error {
		var payload queue.SyncSectorRelationPayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return fmt.Errorf("invalid concept relation payload: %w", err)
		}
		return syncSvc.SyncSingleConceptRelation(ctx, payload.SectorCode)
	})
	consumer.Register(queue.TaskSyncStockKline1D, func(ctx context.Context, task *queue.Task) error {
		var payload queue.SyncStockKlinePayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return fmt.Errorf("invalid kline payload: %w", err)
		}
		_, err := syncSvc.SyncSingleStockKline1D(ctx, payload.StockID, payload.StockCode)
		return err
	})
	consumer.Register(queue.TaskPublishArticle, func(ctx context.Context, task *queue.Task) error {
		var payload queue.PublishArticlePayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return fmt.Errorf("invalid publish payload: %w", err)
		}
		return publishSvc.ProcessPublishTask(ctx, task.ID, payload.PublishLogID)
	})

	if err := consumer.Start(ctx, common.StreamMarketSync, common.StreamArticlePublish); err != nil {
		appLogger.Fatal("Failed to start queue consumer", logger.ErrorField(err))
	}

	// Start the cron scheduler
	sched := scheduler.NewScheduler(cfg.Scheduler, broker, appLogger)
	if err := sched.Start(ctx); err != nil {
		appLogger.Fatal("Failed to start scheduler", logger.ErrorField(err))
	}

	appLogger.Info("Worker service started. Waiting for tasks...")

	// Wait for interrupt signal to gracefully shut down the service
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down worker service...")
	cancel()
	consumer.Stop()
	appLogger.Info("Worker service stopped.")
}

func main() {
	rootCmd := &cobra.Command{Use: "worker-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing worker-service CLI: %s\n", err)
		os.Exit(1)
	}
}
