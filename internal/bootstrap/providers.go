package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"price-tracker/internal/application"
	"price-tracker/internal/config"
	"price-tracker/internal/domain"
	infraconfig "price-tracker/internal/infrastructure/config"
	"price-tracker/internal/infrastructure/extractor"
	"price-tracker/internal/infrastructure/filestore"
	httpserver "price-tracker/internal/infrastructure/http"
	"price-tracker/internal/infrastructure/httpx"
	"price-tracker/internal/infrastructure/logx"
	redisstore "price-tracker/internal/infrastructure/redis"
)

func ProvideConfig() (config.Config, error) { return config.Load() }

// ProvideLogger installs the process logger: JSON to stderr, teed to the
// rotating log file when one is configured.
func ProvideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	log, cleanup, err := logx.Init(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, func() {}, fmt.Errorf("init logger: %w", err)
	}
	return log.With(zap.String("env", cfg.Env)), cleanup, nil
}

func ProvideFetcher(cfg config.Config, log *zap.Logger) *httpx.Client {
	headers := map[string]string{"Accept-Language": cfg.AcceptLanguage}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	return &httpx.Client{
		HTTP:            httpx.NewHTTPClient(cfg.Timeout, cfg.Proxies),
		Headers:         headers,
		UserAgents:      cfg.UserAgents,
		Attempts:        cfg.Attempts,
		InitialInterval: infraconfig.DefaultBackoffInitial,
		MaxInterval:     infraconfig.DefaultBackoffMax,
		MaxBodyBytes:    infraconfig.DefaultMaxBodyBytes,
		Log:             log,
	}
}

// ProvideRunLock returns the redis lock when SCRAPER_LOCK_BACKEND=redis and
// a no-op lock otherwise.
func ProvideRunLock(ctx context.Context, cfg config.Config) (application.RunLock, func(), error) {
	if cfg.LockBackend != "redis" {
		return application.NoopRunLock{}, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, func() {}, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return redisstore.NewRunLock(client, cfg.LockTTL), func() { _ = client.Close() }, nil
}

// Targets lists the configured sites in tracking order.
func Targets(cfg config.Config) []application.Target {
	var out []application.Target
	for _, s := range domain.Sites() {
		if u, ok := cfg.Sites[s]; ok && u != "" {
			out = append(out, application.Target{Site: s, URL: u})
		}
	}
	return out
}

func BuildTracker(ctx context.Context, cfg config.Config, log *zap.Logger) (*application.Tracker, func(), error) {
	lock, cleanup, err := ProvideRunLock(ctx, cfg)
	if err != nil {
		return nil, func() {}, err
	}
	t := application.NewTracker(
		ProvideFetcher(cfg, log),
		extractor.All(),
		filestore.NewSnapshotStore(cfg.SnapshotPath),
		filestore.NewHistoryStore(cfg.HistoryPath),
		Targets(cfg),
		application.WithLogger(log),
		application.WithPause(application.UniformPause(cfg.PauseMin, cfg.PauseMax)),
		application.WithRunLock(lock, application.DefaultLockKey),
	)
	return t, cleanup, nil
}

func BuildAPI(cfg config.Config) http.Handler {
	return httpserver.NewRouter(httpserver.NewServer(cfg.SnapshotPath, cfg.HistoryPath))
}
