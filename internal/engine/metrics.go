package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	YouTubeSearchRequests atomic.Int64
	YouTubeSearchErrors   atomic.Int64
	SweepsStarted         atomic.Int64
	SweepsCancelled       atomic.Int64
	SweepItems            atomic.Int64
	SweepItemsFailed      atomic.Int64
	TransportErrors       atomic.Int64
	QuotaErrors           atomic.Int64
	PersistenceErrors     atomic.Int64
	VideosFetched         atomic.Int64
	VideosCreated         atomic.Int64
	VideosUpdated         atomic.Int64
}

var metricKeys = []string{
	"youtube_search_requests", "youtube_search_errors",
	"sweeps_started", "sweeps_cancelled",
	"sweep_items", "sweep_items_failed",
	"transport_errors", "quota_errors", "persistence_errors",
	"videos_fetched", "videos_created", "videos_updated",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"youtube_search_requests": metrics.YouTubeSearchRequests.Load(),
		"youtube_search_errors":   metrics.YouTubeSearchErrors.Load(),
		"sweeps_started":          metrics.SweepsStarted.Load(),
		"sweeps_cancelled":        metrics.SweepsCancelled.Load(),
		"sweep_items":             metrics.SweepItems.Load(),
		"sweep_items_failed":      metrics.SweepItemsFailed.Load(),
		"transport_errors":        metrics.TransportErrors.Load(),
		"quota_errors":            metrics.QuotaErrors.Load(),
		"persistence_errors":      metrics.PersistenceErrors.Load(),
		"videos_fetched":          metrics.VideosFetched.Load(),
		"videos_created":          metrics.VideosCreated.Load(),
		"videos_updated":          metrics.VideosUpdated.Load(),
		"cache_hits":              hits,
		"cache_misses":            misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for sources/ sub-package.
func IncrYouTubeSearch()      { metrics.YouTubeSearchRequests.Add(1) }
func IncrYouTubeSearchError() { metrics.YouTubeSearchErrors.Add(1) }

// Incrementors for sweep/ sub-package.
func IncrSweepStarted()   { metrics.SweepsStarted.Add(1) }
func IncrSweepCancelled() { metrics.SweepsCancelled.Add(1) }

// RecordSweepItem counts one keyword or city job and classifies its error, if any.
func RecordSweepItem(fetched int, res BatchResult, err error) {
	metrics.SweepItems.Add(1)
	metrics.VideosFetched.Add(int64(fetched))
	metrics.VideosCreated.Add(int64(res.Created))
	metrics.VideosUpdated.Add(int64(res.Updated))
	if err == nil {
		return
	}
	metrics.SweepItemsFailed.Add(1)
	switch ErrorKind(err) {
	case "quota":
		metrics.QuotaErrors.Add(1)
	case "transport":
		metrics.TransportErrors.Add(1)
	case "persistence":
		metrics.PersistenceErrors.Add(1)
	}
}

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, threshold time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > threshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
