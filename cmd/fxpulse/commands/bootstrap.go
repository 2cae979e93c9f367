package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fxpulse/internal/contracts"
	"github.com/wonny/fxpulse/internal/external/finnhub"
	"github.com/wonny/fxpulse/internal/pipeline"
	"github.com/wonny/fxpulse/internal/realtime"
	"github.com/wonny/fxpulse/internal/s0_data"
	"github.com/wonny/fxpulse/internal/s1_signals"
	"github.com/wonny/fxpulse/internal/s2_activation"
	"github.com/wonny/fxpulse/internal/s3_notify"
	"github.com/wonny/fxpulse/pkg/config"
	"github.com/wonny/fxpulse/pkg/database"
	"github.com/wonny/fxpulse/pkg/httputil"
	"github.com/wonny/fxpulse/pkg/logger"
	"github.com/wonny/fxpulse/pkg/metrics"
	"github.com/wonny/fxpulse/pkg/redis"
)

// app holds the wired components shared by serve and cycle
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	catalog *config.Catalog
	metrics *metrics.Recorder

	db    *database.DB
	redis *redis.Client

	instruments contracts.InstrumentRepository
	signals     contracts.SignalStore
	notifier    *s3_notify.Engine
	hub         *realtime.Hub
	runner      *pipeline.Runner
}

// newApp wires storage, provider, hub and runner from cfg.
// Call Close when done.
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	catalog, err := config.LoadCatalog(cfg.Pipeline.InstrumentsFile)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, catalog: catalog}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	var (
		analysis      contracts.AnalysisRepository
		notifications contracts.NotificationRepository
	)

	// 1. Storage
	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db

		applied, err := db.Migrate(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		if len(applied) > 0 {
			log.WithField("versions", applied).Info("Applied migrations")
		}

		a.instruments = s0_data.NewInstrumentRepository(db.Pool)
		analysis = s0_data.NewAnalysisRepository(db.Pool)
		a.signals = s2_activation.NewPostgresStore(db.Pool)
		notifications = s3_notify.NewRepository(db.Pool)
		log.Info("Connected to database")
	case config.StorageMemory:
		a.instruments = s0_data.NewMemoryInstrumentRepository()
		analysis = s0_data.NewMemoryAnalysisRepository()
		a.signals = s2_activation.NewMemoryStore()
		notifications = s3_notify.NewMemoryRepository()
		log.Warn("Using in-memory storage; state is lost on exit")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage)
	}

	// 2. Quote provider
	httpClient := httputil.New(cfg, log)
	if cfg.Redis.Enabled {
		rc, err := redis.New(cfg)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, using the in-process rate limit only")
		} else {
			a.redis = rc
			httpClient.WithRateLimiter(redis.NewRateLimiter(rc, "fxpulse"), providerRateLimit(cfg))
		}
	}

	if cfg.Finnhub.APIKey == "" {
		log.Warn("FINNHUB_API_KEY is empty; provider requests will be rejected")
	}

	symbols, err := finnhub.SymbolTableFromCatalog(catalog)
	if err != nil {
		a.Close()
		return nil, err
	}
	source := finnhub.NewClient(httpClient, symbols, finnhub.Config{
		BaseURL: cfg.Finnhub.BaseURL,
		APIKey:  cfg.Finnhub.APIKey,
		Timeout: cfg.Finnhub.Timeout,
	}, log, a.metrics)

	// 3. Hub, notifier, runner
	a.hub = realtime.NewHub(realtime.Config{
		BufferSize:            cfg.Hub.BufferSize,
		SnapshotNotifications: cfg.Hub.SnapshotNotifications,
	}, log, a.metrics)
	a.notifier = s3_notify.NewEngine(notifications, log)

	seed := cfg.Pipeline.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	a.runner = pipeline.NewRunner(pipeline.Deps{
		Catalog:     catalog,
		Source:      source,
		Instruments: a.instruments,
		Analysis:    analysis,
		Signals:     a.signals,
		Notifier:    a.notifier,
		Hub:         a.hub,
		Synthesizer: s1_signals.NewSynthesizer(s1_signals.NewRandSource(seed)),
		Scorer:      s1_signals.NewScorer(cfg.Pipeline.Premium),
	}, cfg.Pipeline.Workers, log, a.metrics)

	if err := a.runner.Provision(ctx, cfg.Hub.SnapshotNotifications); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// providerRateLimit sizes the shared limiter from FINNHUB_RATE_LIMIT
func providerRateLimit(cfg *config.Config) redis.RateLimitConfig {
	rl := redis.FinnhubRateLimit
	if cfg.Finnhub.RateLimit > 0 {
		rl.Limit = cfg.Finnhub.RateLimit
	}
	return rl
}

// Close releases connections
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
