package mcp

import (
	"context"
	"io"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/nirimap/internal/config"
	"github.com/1broseidon/nirimap/internal/display"
	"github.com/1broseidon/nirimap/internal/ipc"
	"github.com/1broseidon/nirimap/internal/state"
)

const (
	ServerName    = "nirimap"
	ServerVersion = "0.1.0"
)

// StateFetcher builds a fresh store from niri. events.Normalizer satisfies it.
type StateFetcher interface {
	FetchFullState(ctx context.Context) (*state.Store, error)
}

// DaemonClient talks to a running minimap daemon. ipc.Client satisfies it.
type DaemonClient interface {
	GetStatus() (*ipc.StatusData, error)
	GetState() (*state.Snapshot, error)
}

// ScreenDetector reports the screen geometry for width clamping.
type ScreenDetector interface {
	Detect(ctx context.Context) display.Screen
}

// Options wires the server to its collaborators. Daemon and Screen may be nil.
type Options struct {
	Fetcher StateFetcher
	Daemon  DaemonClient
	Screen  ScreenDetector
	Config  *config.Config
	Logger  *slog.Logger
}

// Server exposes read-only minimap tools over MCP.
type Server struct {
	mcpServer *mcpsdk.Server
	fetcher   StateFetcher
	daemon    DaemonClient
	screen    ScreenDetector
	config    *config.Config
	logger    *slog.Logger
}

// NewServer creates the MCP server and registers its tools.
func NewServer(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		fetcher: opts.Fetcher,
		daemon:  opts.Daemon,
		screen:  opts.Screen,
		config:  cfg,
		logger:  logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_minimap_state",
		Description: "Return the niri workspaces and windows the minimap tracks, sorted by id. Reads from the running nirimap daemon when available, otherwise queries niri directly. Optionally restrict to one workspace_id.",
	}, s.handleGetState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_minimap_layout",
		Description: "Project a workspace (default: the active one) into minimap rectangles: box width and height in pixels, scale factor, and one rect per tiled window ordered by column then position. Floating windows are not projected.",
	}, s.handleGetLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_minimap_status",
		Description: "Report whether the nirimap daemon is running and whether the minimap is currently visible.",
	}, s.handleGetStatus)
}
