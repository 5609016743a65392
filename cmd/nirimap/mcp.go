package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/nirimap/internal/config"
	"github.com/1broseidon/nirimap/internal/display"
	"github.com/1broseidon/nirimap/internal/events"
	"github.com/1broseidon/nirimap/internal/ipc"
	"github.com/1broseidon/nirimap/internal/mcp"
	"github.com/1broseidon/nirimap/internal/niri"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol server",
	}

	var debug bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Long: `Start the MCP server on stdio. Designed to be invoked by MCP clients.

Tools read from a running 'nirimap run' when its control socket answers and
query niri directly otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMCPServe(debug)
		},
	}
	serve.Flags().BoolVar(&debug, "debug", false, "Enable debug logging on stderr")
	cmd.AddCommand(serve)
	return cmd
}

func runMCPServe(debug bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := quietLogger(debug)

	opts := mcp.Options{
		Daemon: ipc.NewClient(),
		Config: cfg,
		Logger: logger,
	}

	// niri is optional here: the daemon may still answer.
	client, err := niri.NewClient()
	if err != nil {
		logger.Warn("niri unavailable, serving daemon data only", "error", err)
	} else {
		opts.Fetcher = events.NewNormalizer(events.ClientSource{Client: client}, logger)
	}

	x11Monitors, closeX11 := display.ConnectX11()
	defer closeX11()
	detector := &display.Detector{X11: x11Monitors, Logger: logger}
	if client != nil {
		detector.Niri = client
	}
	opts.Screen = detector

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return mcp.NewServer(opts).Run(ctx)
}
