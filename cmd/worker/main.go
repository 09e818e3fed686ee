package main

import (
	"context"
	"log"
	"time"

	"docqa/internal/activities"
	"docqa/internal/config"
	"docqa/internal/documents"
	"docqa/internal/logging"
	"docqa/internal/storage"
	"docqa/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "docqa-worker")
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.TemporalAddress == "" {
		cfg.TemporalAddress = "localhost:7233"
	}
	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Fatal("temporal", zap.Error(err))
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)

	var catalog activities.StatusUpdater
	storeOpts := []documents.Option{documents.WithLogger(logger)}
	if cfg.PostgresURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		db, err := storage.NewDB(ctx, cfg.PostgresURL)
		if err == nil {
			err = db.EnsureSchema(ctx)
		}
		cancel()
		if err != nil {
			logger.Fatal("postgres", zap.Error(err))
		}
		defer db.Close()
		repo := storage.NewDocumentRepo(db)
		catalog = repo
		storeOpts = append(storeOpts, documents.WithCatalog(repo))
	}
	store, err := documents.NewStore(documents.Config{
		Dir:               cfg.UploadDir,
		MaxUploadSize:     cfg.MaxUploadSize,
		AllowedExtensions: cfg.AllowedExtensions,
	}, storeOpts...)
	if err != nil {
		logger.Fatal("document store", zap.Error(err))
	}
	activities.Register(w, activities.New(store, catalog, logger))

	logger.Info("docqa worker listening",
		zap.String("temporal", cfg.TemporalAddress),
		zap.String("queue", cfg.TemporalTaskQueue),
		zap.String("upload_dir", cfg.UploadDir),
	)
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("worker", zap.Error(err))
	}
}
