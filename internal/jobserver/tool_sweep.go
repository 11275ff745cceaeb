package jobserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_travel/internal/engine"
	"github.com/anatolykoptev/go_travel/internal/engine/sweep"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SweepRunInput struct {
	Sweep string `json:"sweep" jsonschema:"Which sweep to run: category or region"`
}

type SweepSummary struct {
	Sweep      string        `json:"sweep"`
	StartedAt  string        `json:"started_at"`
	DurationMs int64         `json:"duration_ms"`
	Cancelled  bool          `json:"cancelled,omitempty"`
	Items      int           `json:"items"`
	Failed     int           `json:"failed"`
	Fetched    int           `json:"fetched"`
	Created    int           `json:"created"`
	Updated    int           `json:"updated"`
	Report     *sweep.Report `json:"report,omitempty"`
}

type SweepRunOutput struct {
	Summary SweepSummary `json:"summary"`
}

type SweepStatusInput struct{}

type SweepStatusOutput struct {
	Categories []string         `json:"categories"`
	Regions    int              `json:"regions"`
	Pairs      int              `json:"pairs"`
	Last       []SweepSummary   `json:"last"`
	Metrics    map[string]int64 `json:"metrics"`
}

// sweepName maps the user-facing sweep argument to a scheduler sweep name.
func sweepName(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "category", "categories", "keyword":
		return sweep.CategorySweep, nil
	case "region", "region_city", "city":
		return sweep.RegionCitySweep, nil
	}
	return "", fmt.Errorf("unknown sweep %q (want category or region)", s)
}

func summarize(r sweep.Report, withItems bool) SweepSummary {
	t := r.Totals()
	s := SweepSummary{
		Sweep:      r.Sweep,
		StartedAt:  r.StartedAt.UTC().Format(time.RFC3339),
		DurationMs: r.Duration().Milliseconds(),
		Cancelled:  r.Cancelled,
		Items:      len(r.Items),
		Failed:     r.Failed(),
		Fetched:    r.Fetched(),
		Created:    t.Created,
		Updated:    t.Updated,
	}
	if withItems {
		s.Report = &r
	}
	return s
}

func runSweep(ctx context.Context, sched *sweep.Scheduler, name string) (sweep.Report, error) {
	switch name {
	case sweep.CategorySweep:
		return sched.RunCategorySweep(ctx)
	case sweep.RegionCitySweep:
		return sched.RunRegionCitySweep(ctx)
	}
	return sweep.Report{}, fmt.Errorf("unknown sweep %q", name)
}

func registerSweepRun(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_sweep_run",
		Description: "Run one travel video sweep now and wait for it. sweep=category searches each category keyword; sweep=region searches shorts for every region/city pair. Returns per-item results with fetched, created, updated and failed counts. Fails if the same sweep is already running.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SweepRunInput) (*mcp.CallToolResult, SweepRunOutput, error) {
		name, err := sweepName(input.Sweep)
		if err != nil {
			return nil, SweepRunOutput{}, err
		}

		report, err := runSweep(ctx, deps.Scheduler, name)
		if err != nil {
			slog.Warn("video_sweep_run: sweep not started", slog.String("sweep", name), slog.Any("error", err))
			return nil, SweepRunOutput{}, err
		}
		return nil, SweepRunOutput{Summary: summarize(report, true)}, nil
	})
}

func sweepStatus(sched *sweep.Scheduler) SweepStatusOutput {
	table := sched.Table()
	out := SweepStatusOutput{
		Categories: table.Categories(),
		Regions:    len(table.Regions()),
		Pairs:      len(table.RegionCityJobs(1)),
		Last:       []SweepSummary{},
		Metrics:    engine.GetMetrics(),
	}
	for _, name := range []string{sweep.CategorySweep, sweep.RegionCitySweep} {
		if r, ok := sched.LastReport(name); ok {
			out.Last = append(out.Last, summarize(r, false))
		}
	}
	return out
}

func registerSweepStatus(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_sweep_status",
		Description: "Show the sweep configuration (categories, regions, region/city pairs), a summary of the last category and region sweeps, and ingestion counters.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SweepStatusInput) (*mcp.CallToolResult, SweepStatusOutput, error) {
		return nil, sweepStatus(deps.Scheduler), nil
	})
}
