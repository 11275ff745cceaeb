// go_travel: travel video ingestion service.
//
// Periodically sweeps YouTube for Korean travel videos by category keyword and
// by region/city, and stores them tagged for the travel backend. Exposes MCP
// tools to run sweeps on demand and inspect what was ingested.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_travel/internal/engine"
	"github.com/anatolykoptev/go_travel/internal/engine/sources"
	"github.com/anatolykoptev/go_travel/internal/engine/sweep"
	"github.com/anatolykoptev/go_travel/internal/engine/videos"
	"github.com/anatolykoptev/go_travel/internal/jobserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	initEngine()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx)
	if err != nil {
		slog.Error("video store init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	yt, err := sources.NewYouTube(ctx, sources.YouTubeOptions{})
	if err != nil {
		slog.Error("youtube source init failed", slog.Any("error", err))
		os.Exit(1)
	}

	svc := videos.NewService(store)
	sched := sweep.New(yt, svc, schedulerOptions())

	slog.Info("starting go_travel",
		slog.String("port", mcpPort),
		slog.Duration("sweep_interval", engine.Cfg.SweepInterval),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := sched.Start(ctx); err != nil {
			slog.Error("scheduler stopped", slog.Any("error", err))
		}
	}()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_travel",
		Version: version,
	}, nil)

	n := jobserver.RegisterTools(server, jobserver.Deps{Scheduler: sched, Videos: svc, Source: yt})
	slog.Info("tools registered", slog.Int("count", n))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_travel",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}

	stop()
	<-done
	slog.Info("go_travel stopped")
}

func initEngine() {
	c := engine.Config{
		YouTubeAPIKey:         env.Str("YOUTUBE_API_KEY", ""),
		YouTubeAPIKeyFallback: env.Str("YOUTUBE_API_KEY_FALLBACK", ""),
		YouTubeBaseURL:        env.Str("YOUTUBE_BASE_URL", ""),
		YouTubeRegionCode:     env.Str("YOUTUBE_REGION_CODE", "KR"),
		YouTubeLanguage:       env.Str("YOUTUBE_LANGUAGE", "ko"),
		YouTubeMinInterval:    env.Duration("YOUTUBE_MIN_INTERVAL", 200*time.Millisecond),
		FetchTimeout:          env.Duration("FETCH_TIMEOUT", 20*time.Second),
		SweepInterval:         env.Duration("SWEEP_INTERVAL", sweep.DefaultInterval),
		RegionSweepDelay:      env.Duration("REGION_SWEEP_DELAY", sweep.DefaultRegionDelay),
		SweepResultLimit:      env.Int("SWEEP_RESULT_LIMIT", sweep.DefaultResultLimit),
		SweepCategories:       env.List("SWEEP_CATEGORIES", ""),
		DatabaseURL:           env.Str("DATABASE_URL", ""),
		SQLitePath:            env.Str("SQLITE_PATH", ""),
		CacheMaxEntries:       env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval:  env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
	}
	engine.Init(c)

	cacheTTL := env.Duration("CACHE_TTL", 15*time.Minute)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}

// openStore picks PostgreSQL when DATABASE_URL is set, SQLite otherwise.
func openStore(ctx context.Context) (videos.Store, error) {
	c := engine.Cfg
	if c.DatabaseURL != "" {
		s, err := videos.ConnectPostgres(ctx, c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		slog.Info("video store: postgres")
		return s, nil
	}
	s, err := videos.OpenSQLite(ctx, c.SQLitePath)
	if err != nil {
		return nil, err
	}
	slog.Info("video store: sqlite", slog.String("path", s.Path()))
	return s, nil
}

func schedulerOptions() sweep.Options {
	c := engine.Cfg
	table := sweep.DefaultTable()
	if len(c.SweepCategories) > 0 {
		table = table.WithCategories(c.SweepCategories)
	}
	return sweep.Options{
		Table:       &table,
		Interval:    c.SweepInterval,
		RegionDelay: c.RegionSweepDelay,
		ResultLimit: c.SweepResultLimit,
		CallTimeout: c.FetchTimeout,
	}
}
