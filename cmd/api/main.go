package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"docqa/internal/api"
	"docqa/internal/cache"
	"docqa/internal/config"
	"docqa/internal/documents"
	"docqa/internal/logging"
	"docqa/internal/metrics"
	"docqa/internal/providers"
	"docqa/internal/qa"
	"docqa/internal/storage"

	"github.com/joho/godotenv"
	tclient "go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "docqa-api")
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	retrievalOpts, err := cfg.RetrievalOptions()
	if err != nil {
		logger.Fatal("load retrieval config", zap.Error(err))
	}

	rec := metrics.NewRecorder(metrics.Config{})
	deps := api.Deps{
		Metrics:        rec,
		MetricsHandler: rec.Handler(),
		Logger:         logger,
	}

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
		storeOpts = append(storeOpts, documents.WithCatalog(storage.NewDocumentRepo(db)))
		deps.AskLog = storage.NewAskLogRepo(db)
	}
	docs, err := documents.NewStore(documents.Config{
		Dir:               cfg.UploadDir,
		MaxUploadSize:     cfg.MaxUploadSize,
		AllowedExtensions: cfg.AllowedExtensions,
	}, storeOpts...)
	if err != nil {
		logger.Fatal("document store", zap.Error(err))
	}
	deps.Docs = docs

	pm, err := providers.NewManager(cfg)
	if err != nil {
		logger.Fatal("providers", zap.Error(err))
	}
	names := make([]string, 0, pm.LLMCount())
	for _, ref := range pm.Refs() {
		names = append(names, ref.String())
	}
	logger.Info("llm providers", zap.Strings("order", names))

	qaOpts := []qa.Option{qa.WithLogger(logger), qa.WithRecorder(rec)}
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		answers, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      time.Duration(cfg.AnswerTTLSeconds) * time.Second,
		})
		cancel()
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer answers.Close()
		qaOpts = append(qaOpts, qa.WithAnswerCache(answers))
	}
	deps.QA = qa.NewService(docs, pm, qa.Config{
		Retrieval: retrievalOpts,
		Params: qa.Params{
			Model:       cfg.ModelName,
			Temperature: cfg.LLMTemperature,
			MaxTokens:   cfg.LLMMaxTokens,
		},
		ContentTTL: time.Duration(cfg.ContentTTLSeconds) * time.Second,
		PathTTL:    time.Duration(cfg.PathTTLSeconds) * time.Second,
		AnswerTTL:  time.Duration(cfg.AnswerTTLSeconds) * time.Second,
	}, qaOpts...)

	if cfg.TemporalAddress != "" {
		tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
		if err != nil {
			logger.Fatal("temporal", zap.Error(err))
		}
		defer tc.Close()
		deps.Ingest = api.NewTemporalIngest(tc, cfg.TemporalTaskQueue)
	}

	h := api.NewServer(cfg, deps)
	logger.Info("docqa api listening",
		zap.String("addr", cfg.APIAddr),
		zap.String("llm_providers", cfg.LLMProviders),
		zap.String("model", cfg.ModelName),
		zap.Bool("postgres", cfg.PostgresURL != ""),
		zap.Bool("redis", cfg.RedisAddr != ""),
		zap.Bool("temporal", cfg.TemporalAddress != ""),
	)
	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
}
