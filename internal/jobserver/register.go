package jobserver

import (
	"github.com/anatolykoptev/go_travel/internal/engine/sweep"
	"github.com/anatolykoptev/go_travel/internal/engine/videos"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Deps are the services the tools operate on.
type Deps struct {
	Scheduler *sweep.Scheduler
	Videos    *videos.Service
	Source    sweep.Source
}

// RegisterTools registers the video ingestion tools on the given MCP server:
// video_sweep_run, video_sweep_status, video_list, video_search_preview.
func RegisterTools(server *mcp.Server, deps Deps) int {
	registerSweepRun(server, deps)
	registerSweepStatus(server, deps)
	registerVideoList(server, deps)
	registerSearchPreview(server, deps)
	return 4
}
