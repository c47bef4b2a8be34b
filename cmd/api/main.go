package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/bryanwahyu/marcenaria-vision/internal/application"
	appanalysis "github.com/bryanwahyu/marcenaria-vision/internal/application/analysis"
	"github.com/bryanwahyu/marcenaria-vision/internal/config"
	"github.com/bryanwahyu/marcenaria-vision/internal/domain/ai"
	"github.com/bryanwahyu/marcenaria-vision/internal/domain/catalog"
	"github.com/bryanwahyu/marcenaria-vision/internal/domain/history"
	aiopenai "github.com/bryanwahyu/marcenaria-vision/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/marcenaria-vision/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/marcenaria-vision/internal/infra/db/postgres"
	"github.com/bryanwahyu/marcenaria-vision/internal/infra/fetch"
	"github.com/bryanwahyu/marcenaria-vision/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/marcenaria-vision/internal/infra/storage"
	"github.com/bryanwahyu/marcenaria-vision/internal/logger"
	"github.com/bryanwahyu/marcenaria-vision/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer lg.Sync()

	ctx := context.Background()
	checkers := map[string]middleware.HealthChecker{}

	// catalog + history
	var (
		catalogRepo catalog.Repository
		historyRepo history.Repository
	)
	db, err := connectDB(ctx, cfg)
	if err != nil {
		lg.Fatal("database connect error", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	if db != nil {
		defer db.Close()
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
		switch cfg.Database.Driver {
		case "postgres":
			catalogRepo = pgp.NewCatalogRepository(db)
			historyRepo = pgp.NewHistoryRepository(db)
		default:
			catalogRepo = mysqlp.NewCatalogRepository(db)
			historyRepo = mysqlp.NewHistoryRepository(db)
		}
	} else {
		lg.Warn("no database configured, catalog is empty and history is disabled")
	}

	fetcher := fetch.New(cfg.Fetch.Timeout, cfg.Fetch.MaxBytes)

	var persister *appanalysis.Persister
	if cfg.StorageEnabled() {
		store, err := minioStore.New(ctx, minioStore.Options{
			Endpoint:      cfg.Minio.Endpoint,
			Region:        cfg.Minio.Region,
			BucketName:    cfg.Minio.BucketName,
			AccessKey:     cfg.Minio.AccessKey,
			SecretKey:     cfg.Minio.SecretKey,
			UseSSL:        cfg.Minio.UseSSL,
			PublicBaseURL: cfg.Minio.PublicBaseURL,
		})
		if err != nil {
			lg.Fatal("minio init error", zap.Error(err))
		}
		checkers["storage"] = store
		persister = &appanalysis.Persister{
			Store:   store,
			Fetcher: fetcher,
			Clock:   application.SystemClock{},
			Log:     lg.Named("persist"),
			Timeout: cfg.Fetch.Timeout,
		}
	} else {
		lg.Warn("no object storage configured, simulated images will not be stored")
	}

	// AI gateway; without a key every analysis fails with a configuration error
	var (
		vision ai.VisionAnalyzer
		synth  ai.ImageSynthesizer
	)
	if cfg.AI.APIKey != "" {
		vision = aiopenai.NewClient(aiopenai.Options{
			APIKey:    cfg.AI.APIKey,
			BaseURL:   cfg.AI.BaseURL,
			Model:     cfg.AI.VisionModel,
			MaxTokens: cfg.AI.MaxTokens,
			Timeout:   cfg.AI.Timeout,
		}, lg.Named("vision"))
		synth = aiopenai.NewSynthesizer(aiopenai.SynthesizerOptions{
			APIKey:      cfg.AI.APIKey,
			BaseURL:     cfg.AI.BaseURL,
			Chain:       synthesisChain(cfg),
			Timeout:     cfg.Synthesis.Timeout,
			Budget:      cfg.Synthesis.Budget,
			MaxAttempts: cfg.Synthesis.MaxAttempts,
		}, fetcher, lg.Named("synthesis"))
	} else {
		lg.Warn("AI_API_KEY not set, analysis requests will fail")
	}
	svc := &appanalysis.Service{
		Catalog:      catalogRepo,
		Vision:       vision,
		Synth:        synth,
		Persister:    persister,
		History:      historyRepo,
		Clock:        application.SystemClock{},
		Metrics:      middleware.AnalysisCounters{},
		Log:          lg.Named("analysis"),
		CatalogLimit: cfg.Catalog.Limit,
	}
	checkers["ai"] = middleware.CheckFunc(svc.CheckAI)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	defer limiter.Close()

	handler := httpserver.NewRouter(httpserver.Options{
		Service:  svc,
		Log:      lg.Named("http"),
		Checkers: checkers,
		APIKeys:  cfg.Auth.APIKeys,
		Limiter:  limiter,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  2 * cfg.Server.ReadTimeout,
	}

	go func() {
		lg.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	lg.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		lg.Error("shutdown error", zap.Error(err))
	}
}

func connectDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	switch cfg.Database.Driver {
	case "mysql":
		return mysqlp.Connect(ctx, cfg.MySQLDSN())
	case "postgres":
		return pgp.Connect(ctx, cfg.PostgresDSN())
	default:
		return nil, nil
	}
}

func synthesisChain(cfg *config.Config) []aiopenai.Strategy {
	if len(cfg.Synthesis.Chain) == 0 {
		return aiopenai.DefaultChain(cfg.Synthesis.FastModel, cfg.Synthesis.ProModel)
	}
	chain := make([]aiopenai.Strategy, 0, len(cfg.Synthesis.Chain))
	for _, s := range cfg.Synthesis.Chain {
		chain = append(chain, aiopenai.Strategy{Model: s.Model, Encoding: aiopenai.Encoding(s.Encoding)})
	}
	return chain
}
