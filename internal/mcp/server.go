package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/claude/swimtrack/internal/analytics"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered. mode is
// the default best-window mode used when a caller does not pick one.
func New(ds DataSource, version string, mode analytics.WindowMode, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("SwimTrack", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("SwimTrack swim training server. Query zone load, compare training windows, find best training blocks, and inspect the season's macrocycle and competitions. Dates are calendar days (YYYY-MM-DD); windows include both ends. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, mode: mode, log: log, now: time.Now}

	s.AddTools(
		server.ServerTool{Tool: toolGetZoneLoad, Handler: h.getZoneLoad},
		server.ServerTool{Tool: toolCompareWindows, Handler: h.compareWindows},
		server.ServerTool{Tool: toolFindBestWindow, Handler: h.findBestWindow},
		server.ServerTool{Tool: toolGetWeeklyTotals, Handler: h.getWeeklyTotals},
		server.ServerTool{Tool: toolGetMacrocycle, Handler: h.getMacrocycle},
		server.ServerTool{Tool: toolGetPhaseLoad, Handler: h.getPhaseLoad},
		server.ServerTool{Tool: toolGetMainCompetition, Handler: h.getMainCompetition},
		server.ServerTool{Tool: toolGetDashboard, Handler: h.getDashboard},
	)

	s.AddResources(
		server.ServerResource{Resource: resDashboard, Handler: h.dashboardResource},
		server.ServerResource{Resource: resMacrocycle, Handler: h.macrocycleResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds   DataSource
	mode analytics.WindowMode
	log  *slog.Logger
	now  func() time.Time
}

// --- Resource definitions ---

var resDashboard = mcp.NewResource(
	"swimtrack://dashboard",
	"Training Dashboard",
	mcp.WithResourceDescription("This week vs last week, best 7 and 30 blocks, recent weekly volume, current phase and the main competition"),
	mcp.WithMIMEType("application/json"),
)

var resMacrocycle = mcp.NewResource(
	"swimtrack://macrocycle",
	"Macrocycle",
	mcp.WithResourceDescription("All training phases in order with their scheduled dates and status, plus the competition calendar"),
	mcp.WithMIMEType("application/json"),
)
