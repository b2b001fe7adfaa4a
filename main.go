package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecocycle/config"
	"ecocycle/cron"
	"ecocycle/database"
	auditRepoPkg "ecocycle/database/repository/audit"
	centerRepoPkg "ecocycle/database/repository/center"
	ledgerRepoPkg "ecocycle/database/repository/ledger"
	requestRepoPkg "ecocycle/database/repository/request"
	"ecocycle/handlers"
	"ecocycle/routes"
	"ecocycle/services/collection"
	"ecocycle/services/ledger"
	"ecocycle/services/notification"
	"ecocycle/utils"

	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.FirebaseInit()

	storageService, err := utils.Cloudinary()
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize cloudinary storage service: %v", err)
	}

	// repositories.
	requestRepo := requestRepoPkg.NewMongoRequestRepo()
	centerRepo := centerRepoPkg.NewMongoCenterRepo()
	ledgerRepo := ledgerRepoPkg.NewMongoLedgerRepo()
	auditRepo := auditRepoPkg.NewMongoAuditRepo()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := requestRepo.EnsureIndexes(ctx); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure request indexes: %v", err)
		}
		if err := ledgerRepo.EnsureIndexes(ctx); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure ledger indexes: %v", err)
		}
		cancel()
	}

	// notification queue.
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer asynqClient.Close()
	dispatcher := notification.NewAsynqDispatcher(asynqClient, logger)
	cron.InitNotifyWorker(utils.FCMClient)

	// services.
	revenueLedger := &ledger.DefaultRevenueLedger{
		Repo:   ledgerRepo,
		Logger: logger,
	}
	earningsView := &ledger.EarningsView{
		Repo:        ledgerRepo,
		CacheClient: utils.GetCacheClient(),
		Logger:      logger,
	}
	collectionService := &collection.DefaultCollectionService{
		Repo:     requestRepo,
		Centers:  centerRepo,
		Ledger:   revenueLedger,
		Audit:    auditRepo,
		Earnings: earningsView,
		Notifier: dispatcher,
		Cache:    utils.GetCacheClient(),
		Logger:   logger,
	}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Collection: handlers.NewCollectionHandler(collectionService),
		Earnings:   handlers.NewEarningsHandler(earningsView),
		Centers:    handlers.NewCenterHandler(centerRepo),
		Storage:    handlers.NewStorageHandler(storageService),
	}

	router := routes.SetupRouter(handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
