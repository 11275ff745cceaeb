package jobserver

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_travel/internal/engine"
	"github.com/anatolykoptev/go_travel/internal/engine/sweep"
	"github.com/anatolykoptev/go_travel/internal/engine/videos"
	"github.com/anatolykoptev/go_travel/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VideoListInput struct {
	Category string `json:"category,omitempty" jsonschema:"Category keyword (e.g. 캠핑, 힐링)"`
	Region   string `json:"region,omitempty" jsonschema:"Region name (e.g. 제주도). Use together with city"`
	City     string `json:"city,omitempty" jsonschema:"City name (e.g. 서귀포)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Max videos to return (default 20, max 100)"`
	Refresh  bool   `json:"refresh,omitempty" jsonschema:"Bypass the cached listing (e.g. right after a sweep)"`
}

type VideoListOutput struct {
	Count  int            `json:"count"`
	Total  int            `json:"total"`
	Videos []videos.Video `json:"videos"`
}

type SearchPreviewInput struct {
	Query  string `json:"query" jsonschema:"Search query (e.g. 서귀포 여행)"`
	Shorts bool   `json:"shorts,omitempty" jsonschema:"Search short-form videos only"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Max videos to return (default 15, max 50)"`
}

type SearchPreviewOutput struct {
	Query  string                  `json:"query"`
	Count  int                     `json:"count"`
	Videos []engine.RawVideoRecord `json:"videos"`
}

func listVideos(ctx context.Context, svc *videos.Service, input VideoListInput) (VideoListOutput, error) {
	f := videos.VideoFilter{
		Category: strings.TrimSpace(input.Category),
		Region:   strings.TrimSpace(input.Region),
		City:     strings.TrimSpace(input.City),
		Limit:    toolutil.ClampLimit(input.Limit, 20, 100),
	}
	if f.City != "" && f.Region == "" {
		return VideoListOutput{}, fmt.Errorf("city requires region")
	}

	key := engine.CacheKey("video_list", f.Category, f.Region, f.City, strconv.Itoa(f.Limit))
	if input.Refresh {
		engine.CacheInvalidate(ctx, key)
	}
	return toolutil.Cached(ctx, key, func(ctx context.Context) (VideoListOutput, error) {
		list, err := svc.List(ctx, f)
		if err != nil {
			return VideoListOutput{}, err
		}
		total, err := svc.Count(ctx)
		if err != nil {
			return VideoListOutput{}, err
		}
		if list == nil {
			list = []videos.Video{}
		}
		return VideoListOutput{Count: len(list), Total: total, Videos: list}, nil
	})
}

func registerVideoList(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_list",
		Description: "List stored travel videos, newest first. Filter by category keyword or by region and city. Each video carries all categories and places it was tagged with.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VideoListInput) (*mcp.CallToolResult, VideoListOutput, error) {
		out, err := listVideos(ctx, deps.Videos, input)
		if err != nil {
			slog.Warn("video_list: failed", slog.Any("error", err))
			return nil, VideoListOutput{}, err
		}
		return nil, out, nil
	})
}

func previewSearch(ctx context.Context, src sweep.Source, input SearchPreviewInput) (SearchPreviewOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return SearchPreviewOutput{}, fmt.Errorf("query is required")
	}
	limit := toolutil.ClampLimit(input.Limit, sweep.DefaultResultLimit, 50)

	key := engine.CacheKey("video_search_preview", query, strconv.FormatBool(input.Shorts), strconv.Itoa(limit))
	return toolutil.Cached(ctx, key, func(ctx context.Context) (SearchPreviewOutput, error) {
		var (
			recs []engine.RawVideoRecord
			err  error
		)
		if input.Shorts {
			recs, err = src.SearchShortsByRegion(ctx, query, limit)
		} else {
			recs, err = src.SearchByKeyword(ctx, query, limit)
		}
		if err != nil {
			return SearchPreviewOutput{}, err
		}
		if recs == nil {
			recs = []engine.RawVideoRecord{}
		}
		return SearchPreviewOutput{Query: query, Count: len(recs), Videos: recs}, nil
	})
}

func registerSearchPreview(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_search_preview",
		Description: "Search YouTube the way the sweeps do, without saving anything. Use shorts=true for the region/city sweep's short-form search. Results are cached to spare API quota.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SearchPreviewInput) (*mcp.CallToolResult, SearchPreviewOutput, error) {
		out, err := previewSearch(ctx, deps.Source, input)
		if err != nil {
			slog.Warn("video_search_preview: failed", slog.String("query", input.Query),
				slog.String("kind", engine.ErrorKind(err)), slog.Any("error", err))
			return nil, SearchPreviewOutput{}, err
		}
		return nil, out, nil
	})
}
