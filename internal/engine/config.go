package engine

import "time"

// Config holds all engine configuration, injected from main.
type Config struct {
	YouTubeAPIKey         string
	YouTubeAPIKeyFallback string
	YouTubeBaseURL        string // empty = Google default endpoint
	YouTubeRegionCode     string
	YouTubeLanguage       string
	YouTubeMinInterval    time.Duration // min spacing between outbound search calls
	FetchTimeout          time.Duration // per external call

	SweepInterval    time.Duration
	RegionSweepDelay time.Duration
	SweepResultLimit int
	SweepCategories  []string // empty = built-in category table

	DatabaseURL string // PostgreSQL; empty = SQLite at SQLitePath
	SQLitePath  string

	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, videos, sweep).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}
