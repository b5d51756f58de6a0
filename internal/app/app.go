package app

import (
	"context"
	"fmt"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/mlb-scorecard/external/jobqueue"
	"github.com/riskibarqy/mlb-scorecard/external/reddit"
	"github.com/riskibarqy/mlb-scorecard/external/sportradar"
	"github.com/riskibarqy/mlb-scorecard/internal/config"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/game"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/live"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/poll"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/postsetup"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/rawdata"
	"github.com/riskibarqy/mlb-scorecard/internal/domain/reminder"
	tiered "github.com/riskibarqy/mlb-scorecard/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/mlb-scorecard/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/mlb-scorecard/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/mlb-scorecard/internal/infrastructure/repository/redisstore"
	"github.com/riskibarqy/mlb-scorecard/internal/interfaces/httpapi"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/cache"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/dburl"
	idgen "github.com/riskibarqy/mlb-scorecard/internal/platform/id"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/logging"
	"github.com/riskibarqy/mlb-scorecard/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const (
	liveBufferSize     = 16
	localCacheMaxItems = 1024
)

type storage struct {
	cache      cache.Store
	polls      poll.Repository
	reminders  reminder.Repository
	sessions   postsetup.Repository
	active     game.ActiveRepository
	publisher  live.Publisher
	subscriber live.Subscriber
}

// NewHTTPServer wires the service graph. The returned cleanup releases
// Redis and Postgres connections and must run after the server stops.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, func(), error) {
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("cleanup failed", "error", err)
			}
		}
	}

	store, closeStore, err := newStorage(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeStore)

	archive, closeDB, err := newArchive(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if closeDB != nil {
		closers = append(closers, closeDB)
	}

	provider := sportradar.NewClient(sportradar.ClientConfig{
		BaseURL:        cfg.SportradarBaseURL,
		APIKey:         cfg.SportradarAPIKey,
		AccessLevel:    cfg.SportradarAccessLevel,
		Language:       cfg.SportradarLanguage,
		Timeout:        cfg.SportradarTimeout,
		MaxRetries:     cfg.SportradarMaxRetries,
		Logger:         logger.Named("sportradar"),
		CircuitBreaker: cfg.SportradarCircuit,
	})

	gameSvc := usecase.NewGameService(provider, store.cache, store.polls, archive, usecase.GameServiceConfig{
		CacheTTL:        cfg.CacheTTL,
		DefaultLocation: cfg.DefaultTimeZone,
	}, logger)
	pollSvc := usecase.NewPollService(gameSvc, store.polls, logger)
	reminderSvc := usecase.NewReminderService(gameSvc, store.reminders, newNotifier(cfg, logger), idgen.NewUUIDGenerator(), usecase.ReminderConfig{
		Window:        cfg.ReminderWindow,
		ClaimEnabled:  cfg.ReminderClaimEnabled,
		NotifyWorkers: cfg.ReminderNotifyWorkers,
	}, logger)
	postSetupSvc := usecase.NewPostSetupService(gameSvc, store.sessions, store.active, idgen.NewUUIDGenerator(), cfg.PostSetupTTL, logger)
	liveSvc := usecase.NewLiveService(gameSvc, store.active, store.publisher, store.subscriber, cfg.LiveSyncWorkers, logger)
	jobSvc := usecase.NewJobService(reminderSvc, liveSvc, newJobQueue(cfg, logger), usecase.JobConfig{
		ReminderScanInterval: cfg.ReminderScanInterval,
		LiveSyncInterval:     cfg.LiveSyncInterval,
	}, logger)

	handler := httpapi.NewHandler(httpapi.Services{
		Games:     gameSvc,
		Polls:     pollSvc,
		Reminders: reminderSvc,
		PostSetup: postSetupSvc,
		Live:      liveSvc,
		Jobs:      jobSvc,
	}, cfg.CORSAllowedOrigins, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		SwaggerEnabled:     cfg.AppEnv != config.EnvProd,
		DocsTitle:          cfg.ServiceName + " docs",
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, cleanup, nil
}

// newStorage uses Redis when REDIS_URL is set and process memory otherwise.
func newStorage(ctx context.Context, cfg config.Config, logger *logging.Logger) (storage, func() error, error) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL empty, using in-memory storage")
		broker := memory.NewLiveBroker(liveBufferSize)
		return storage{
			cache:      memory.NewCacheStore(),
			polls:      memory.NewPollRepository(),
			reminders:  memory.NewReminderRepository(),
			sessions:   memory.NewPostSetupRepository(),
			active:     memory.NewActiveGameRepository(),
			publisher:  broker,
			subscriber: broker,
		}, func() error { return nil }, nil
	}

	client, err := redisstore.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return storage{}, nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("redis storage enabled", "addr", client.Options().Addr)

	return newRedisStorage(client, cfg), client.Close, nil
}

func newRedisStorage(client *redis.Client, cfg config.Config) storage {
	pubsub := redisstore.NewLivePubSub(client, liveBufferSize)
	return storage{
		cache:      tiered.NewTieredStore(redisstore.NewCacheStore(client), cfg.LocalCacheTTL, localCacheMaxItems),
		polls:      redisstore.NewPollRepository(client),
		reminders:  redisstore.NewReminderRepository(client),
		sessions:   redisstore.NewPostSetupRepository(client),
		active:     redisstore.NewActiveGameRepository(client),
		publisher:  pubsub,
		subscriber: pubsub,
	}
}

// newArchive opens the payload archive. A nil repository disables archiving.
func newArchive(cfg config.Config, logger *logging.Logger) (rawdata.Repository, func() error, error) {
	if !cfg.DBEnabled {
		logger.Info("payload archive disabled", "reason", "DB_ENABLED=false")
		return nil, nil, nil
	}

	dsn := dburl.Normalize(cfg.DBURL, cfg.DBDisablePreparedBinary)
	dbName := dburl.Name(dsn)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbName),
		otelsql.WithQueryFormatter(dburl.FormatQueryForTrace),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres %s: %w", dburl.Redact(dsn), err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	otelsql.ReportDBStatsMetrics(db.DB, otelsql.WithDBName(dbName))

	logger.Info("payload archive enabled", "database", dbName)
	return postgres.NewPayloadRepository(db), db.Close, nil
}

func newNotifier(cfg config.Config, logger *logging.Logger) reminder.Notifier {
	if !cfg.RedditEnabled {
		return reddit.NewLogNotifier(logger)
	}
	return reddit.NewClient(reddit.ClientConfig{
		BaseURL:     cfg.RedditBaseURL,
		AccessToken: cfg.RedditAccessToken,
		UserAgent:   cfg.RedditUserAgent,
		Timeout:     cfg.RedditTimeout,
	}, logger.Named("reddit"))
}

func newJobQueue(cfg config.Config, logger *logging.Logger) usecase.JobQueue {
	if !cfg.QStashEnabled {
		return usecase.NewNoopJobQueue()
	}
	return jobqueue.NewQStash(jobqueue.QStashConfig{
		BaseURL:          cfg.QStashBaseURL,
		Token:            cfg.QStashToken,
		TargetBaseURL:    cfg.QStashTargetBaseURL,
		Retries:          cfg.QStashRetries,
		InternalJobToken: cfg.InternalJobToken,
		Timeout:          cfg.QStashTimeout,
		CircuitBreaker:   cfg.QStashCircuit,
	}, logger.Named("qstash"))
}
