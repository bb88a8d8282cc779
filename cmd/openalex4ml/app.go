package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/openalex4ml/internal/config"
	dbValkey "github.com/kailas-cloud/openalex4ml/internal/db/valkey"
	"github.com/kailas-cloud/openalex4ml/internal/domain"
	logpkg "github.com/kailas-cloud/openalex4ml/internal/logger"
	"github.com/kailas-cloud/openalex4ml/internal/metrics"
	"github.com/kailas-cloud/openalex4ml/internal/repository/embcache"
	"github.com/kailas-cloud/openalex4ml/internal/repository/vectors"
	openaiEmb "github.com/kailas-cloud/openalex4ml/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/openalex4ml/internal/usecase/embedding"
	"github.com/kailas-cloud/openalex4ml/internal/usecase/vectorize"
	"github.com/kailas-cloud/openalex4ml/internal/version"
)

type appOptions struct {
	configPath string
	env        string
	logLevel   string
}

// app is the composition root shared by the stage commands.
type app struct {
	env     string
	cfg     config.Config
	logger  *zap.Logger
	metrics *metrics.Server
	store   *dbValkey.Store
}

func newApp(opts *appOptions, stage string) (*app, error) {
	env := opts.env
	if env == "" {
		env = config.GetEnv()
	}

	var (
		cfg config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger, err := logpkg.NewLogger(env, logpkg.WithLevel(level))
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logger = logger.With(zap.String("stage", stage))

	logger.Info("Starting openalex4ml",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
	)

	// Register metrics explicitly (no init())
	metrics.Register(prometheus.DefaultRegisterer)

	a := &app{env: env, cfg: cfg, logger: logger}
	if cfg.Metrics.Port > 0 {
		a.metrics = metrics.Start(cfg.Metrics.Port, prometheus.DefaultGatherer, logger)
	}
	return a, nil
}

// Store connects to Valkey on first use.
func (a *app) Store(ctx context.Context) (*dbValkey.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := dbValkey.NewStore(dbValkey.Config{
		Addrs:    a.cfg.Database.Addrs,
		Username: a.cfg.Database.Username,
		Password: a.cfg.Database.Password,
		DB:       a.cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}
	timeout := time.Duration(a.cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	a.logger.Info("Connected to database", zap.Strings("addrs", a.cfg.Database.Addrs))
	a.store = store
	return store, nil
}

// VectorTable builds the configured vector source.
func (a *app) VectorTable(ctx context.Context) (vectorize.VectorTable, error) {
	switch a.cfg.Vectors.Source {
	case config.VectorSourceFile:
		table, err := vectors.LoadFile(a.cfg.Vectors.File)
		if err != nil {
			return nil, err
		}
		a.logger.Info("Vectors loaded",
			zap.String("file", a.cfg.Vectors.File),
			zap.Int("tokens", table.Len()),
			zap.Int("dimensions", table.Dim()),
		)
		return table, nil
	case config.VectorSourceValkey:
		store, err := a.Store(ctx)
		if err != nil {
			return nil, err
		}
		return vectors.NewStoreTable(store, a.cfg.Vectors.KeyPrefix), nil
	case config.VectorSourceOpenAI:
		emb, err := a.Embedder(ctx)
		if err != nil {
			return nil, err
		}
		return vectors.NewEmbedderTable(emb), nil
	default:
		return nil, fmt.Errorf("unknown vector source %q", a.cfg.Vectors.Source)
	}
}

// Embedder assembles the decorator chain: OpenAI -> Instrumented -> Cached.
func (a *app) Embedder(ctx context.Context) (domain.Embedder, error) {
	ec := a.cfg.Embedding
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Logger:     a.logger,
	})

	var embedder domain.Embedder = embeddinguc.NewInstrumentedEmbedder(base, ec.Model, a.logger).
		WithChunkSize(ec.ChunkSize)

	if ec.Cache {
		store, err := a.Store(ctx)
		if err != nil {
			return nil, err
		}
		embedder = embcache.New(embedder, store, a.cfg.Vectors.KeyPrefix, ec.Model, metrics.EmbeddingCacheTotal, a.logger)
	}

	a.logger.Info("Embedder created",
		zap.String("model", ec.Model),
		zap.Int("dimensions", ec.Dimensions),
		zap.Bool("cache", ec.Cache),
	)
	return embedder, nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.metrics != nil {
		a.metrics.Shutdown(time.Duration(a.cfg.Metrics.ShutdownSec) * time.Second)
	}
	_ = a.logger.Sync()
}
