package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/anatolykoptev/go_travel/internal/engine"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTube search via the Data API v3 typed client.
// One search.list call costs 100 quota units, so calls are spaced by a limiter
// and quota errors switch to the fallback key instead of retrying.

const (
	ytWatchURL          = "https://www.youtube.com/watch?v="
	ytShortsURL         = "https://www.youtube.com/shorts/"
	ytMaxResults        = 50 // Data API hard cap per page
	ytDescriptionMaxLen = 1000
	ytDefaultTimeout    = 20 * time.Second
)

var videoIDRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// quotaReasons are googleapi error reasons that mean "stop calling until the quota resets".
var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// YouTubeOptions configures a YouTube source. Zero values fall back to engine.Cfg.
type YouTubeOptions struct {
	APIKey         string
	APIKeyFallback string
	BaseURL        string
	RegionCode     string
	Language       string
	MinInterval    time.Duration
	Timeout        time.Duration
	Retry          *engine.RetryConfig
}

// YouTube is the external video source backed by the YouTube Data API.
type YouTube struct {
	services   []*youtube.Service // primary key first, fallback second
	limiter    *rate.Limiter
	regionCode string
	language   string
	timeout    time.Duration
	retry      engine.RetryConfig
}

// NewYouTube builds one API service per configured key.
func NewYouTube(ctx context.Context, opts YouTubeOptions) (*YouTube, error) {
	opts = withConfigDefaults(opts)
	if opts.APIKey == "" {
		return nil, errors.New("youtube: API key is required")
	}

	keys := []string{opts.APIKey}
	if opts.APIKeyFallback != "" && opts.APIKeyFallback != opts.APIKey {
		keys = append(keys, opts.APIKeyFallback)
	}

	yt := &YouTube{
		regionCode: opts.RegionCode,
		language:   opts.Language,
		timeout:    opts.Timeout,
		retry:      engine.DefaultRetryConfig,
	}
	if opts.Retry != nil {
		yt.retry = *opts.Retry
	}
	if opts.MinInterval > 0 {
		yt.limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	} else {
		yt.limiter = rate.NewLimiter(rate.Inf, 1)
	}

	for _, key := range keys {
		clientOpts := []option.ClientOption{option.WithAPIKey(key), option.WithUserAgent(engine.UserAgentBot)}
		if opts.BaseURL != "" {
			clientOpts = append(clientOpts, option.WithEndpoint(opts.BaseURL))
		}
		svc, err := youtube.NewService(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("youtube: create service: %w", err)
		}
		yt.services = append(yt.services, svc)
	}

	slog.Info("youtube source ready",
		slog.Int("keys", len(yt.services)),
		slog.String("region", yt.regionCode),
		slog.Duration("min_interval", opts.MinInterval))
	return yt, nil
}

func withConfigDefaults(opts YouTubeOptions) YouTubeOptions {
	c := engine.Cfg
	if opts.APIKey == "" {
		opts.APIKey = c.YouTubeAPIKey
	}
	if opts.APIKeyFallback == "" {
		opts.APIKeyFallback = c.YouTubeAPIKeyFallback
	}
	if opts.BaseURL == "" {
		opts.BaseURL = c.YouTubeBaseURL
	}
	if opts.RegionCode == "" {
		opts.RegionCode = c.YouTubeRegionCode
	}
	if opts.Language == "" {
		opts.Language = c.YouTubeLanguage
	}
	if opts.MinInterval == 0 {
		opts.MinInterval = c.YouTubeMinInterval
	}
	if opts.Timeout == 0 {
		opts.Timeout = c.FetchTimeout
	}
	if opts.Timeout <= 0 {
		opts.Timeout = ytDefaultTimeout
	}
	return opts
}

// SearchByKeyword returns up to limit videos matching keyword.
func (yt *YouTube) SearchByKeyword(ctx context.Context, keyword string, limit int) ([]engine.RawVideoRecord, error) {
	return yt.search(ctx, keyword, limit, false)
}

// SearchShortsByRegion returns up to limit short-form videos matching query.
// "Short" is the Data API videoDuration=short filter (under four minutes).
func (yt *YouTube) SearchShortsByRegion(ctx context.Context, query string, limit int) ([]engine.RawVideoRecord, error) {
	return yt.search(ctx, query, limit, true)
}

func (yt *YouTube) search(ctx context.Context, query string, limit int, shorts bool) ([]engine.RawVideoRecord, error) {
	if query == "" {
		return nil, errors.New("youtube: empty query")
	}
	if limit <= 0 {
		return nil, nil
	}
	if limit > ytMaxResults {
		limit = ytMaxResults
	}

	ctx, cancel := context.WithTimeout(ctx, yt.timeout)
	defer cancel()

	var lastErr error
	for i, svc := range yt.services {
		records, err := engine.RetryDo(ctx, yt.retry, func() ([]engine.RawVideoRecord, error) {
			return yt.doSearch(ctx, svc, query, limit, shorts)
		})
		if err == nil {
			return records, nil
		}
		lastErr = err
		if !errors.Is(err, engine.ErrQuotaExceeded) {
			break
		}
		if i+1 < len(yt.services) {
			slog.Warn("youtube: quota exhausted, switching to fallback key", slog.String("query", query))
		}
	}
	engine.IncrYouTubeSearchError()
	return nil, lastErr
}

func (yt *YouTube) doSearch(ctx context.Context, svc *youtube.Service, query string, limit int, shorts bool) ([]engine.RawVideoRecord, error) {
	if err := yt.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", engine.ErrTransport, err)
	}
	engine.IncrYouTubeSearch()

	call := svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(limit))
	if yt.regionCode != "" {
		call = call.RegionCode(yt.regionCode)
	}
	if yt.language != "" {
		call = call.RelevanceLanguage(yt.language)
	}
	if shorts {
		call = call.VideoDuration("short")
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, classifyError(err)
	}

	records := make([]engine.RawVideoRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		rec, ok := toRecord(item, shorts)
		if !ok {
			continue
		}
		records = append(records, rec)
		if len(records) >= limit {
			break
		}
	}
	slog.Debug("youtube: search done",
		slog.String("query", query),
		slog.Bool("shorts", shorts),
		slog.Int("results", len(records)))
	return records, nil
}

// classifyError maps API and transport failures onto the engine error kinds.
// The googleapi error stays in the chain so RetryDo can inspect its status code.
func classifyError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return fmt.Errorf("%w: youtube: %w", engine.ErrQuotaExceeded, err)
		}
		if apiErr.Code == http.StatusForbidden {
			for _, item := range apiErr.Errors {
				if quotaReasons[item.Reason] {
					return fmt.Errorf("%w: youtube: %w", engine.ErrQuotaExceeded, err)
				}
			}
		}
		if apiErr.Code >= 500 {
			return fmt.Errorf("%w: youtube: %w", engine.ErrTransport, err)
		}
		return fmt.Errorf("youtube: %w", err)
	}
	return fmt.Errorf("%w: youtube: %w", engine.ErrTransport, err)
}

func toRecord(item *youtube.SearchResult, shorts bool) (engine.RawVideoRecord, bool) {
	if item == nil || item.Id == nil || !videoIDRE.MatchString(item.Id.VideoId) {
		return engine.RawVideoRecord{}, false
	}
	id := item.Id.VideoId
	rec := engine.RawVideoRecord{
		ExternalID: id,
		URL:        ytWatchURL + id,
	}
	if shorts {
		rec.URL = ytShortsURL + id
	}
	if sn := item.Snippet; sn != nil {
		rec.Title = engine.CleanAPIText(sn.Title)
		rec.Description = engine.TruncateAtWord(engine.CleanAPIText(sn.Description), ytDescriptionMaxLen)
		rec.ChannelExternalID = sn.ChannelId
		rec.ChannelName = engine.CleanAPIText(sn.ChannelTitle)
		rec.ThumbnailURL = bestThumbnail(sn.Thumbnails)
		if t, err := time.Parse(time.RFC3339, sn.PublishedAt); err == nil {
			rec.PublishedAt = t.UTC()
		}
	}
	return rec, true
}

func bestThumbnail(th *youtube.ThumbnailDetails) string {
	if th == nil {
		return ""
	}
	for _, t := range []*youtube.Thumbnail{th.High, th.Medium, th.Default} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}
	return ""
}
