package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/1broseidon/nirimap/internal/config"
	"github.com/1broseidon/nirimap/internal/daemon"
	"github.com/1broseidon/nirimap/internal/display"
	"github.com/1broseidon/nirimap/internal/events"
	"github.com/1broseidon/nirimap/internal/ipc"
	"github.com/1broseidon/nirimap/internal/niri"
	"github.com/1broseidon/nirimap/internal/tui"
)

const screenDetectTimeout = 2 * time.Second

type runOptions struct {
	configPath string
	headless   bool
	debug      bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the minimap (foreground)",
		Long: `Start the minimap in the foreground.

The minimap subscribes to niri's event stream and redraws on every change. On
a terminal it renders with a live TUI; with --headless, or when stdout is not
a terminal, it only logs visibility changes and serves the control socket.

The config file is reloaded on change, on SIGHUP, and on 'nirimap reload'.
The command exits non-zero when the niri event stream fails; restarting is
left to the supervisor.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMinimap(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Config file path (default: $XDG_CONFIG_HOME/nirimap/config.yaml)")
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "Do not draw; log visibility changes only")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging (overrides log_level)")
	return cmd
}

// loadConfigFrom loads path, or the standard location when path is empty.
func loadConfigFrom(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

func runMinimap(parent context.Context, opts runOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfigFrom(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	configPath := opts.configPath
	if configPath == "" {
		if configPath, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}

	useTUI := !opts.headless && term.IsTerminal(int(os.Stdout.Fd()))

	level := new(slog.LevelVar)
	level.Set(parseLevel(cfg.LogLevel))
	if opts.debug {
		level.Set(slog.LevelDebug)
	}
	logOut, closeLog := logDestination(useTUI)
	defer closeLog()
	logger := newLogger(logOut, level)

	client, err := niri.NewClient()
	if err != nil {
		return err
	}
	logger.Info("connecting to niri", "socket", client.SocketPath())

	x11Monitors, closeX11 := display.ConnectX11()
	defer closeX11()
	detector := &display.Detector{Niri: client, X11: x11Monitors, Logger: logger}
	detect := func() display.Screen {
		dctx, cancel := context.WithTimeout(ctx, screenDetectTimeout)
		defer cancel()
		return detector.Detect(dctx)
	}
	screen := detect()
	logger.Info("screen detected", "output", screen.Output, "width", screen.Width, "height", screen.Height, "source", screen.Source)

	updates := make(chan events.Update, daemon.UpdateBuffer)
	reload := make(chan struct{}, 1)

	runner := daemon.NewRunner(daemon.RunnerConfig{
		Config:  cfg,
		Screen:  screen,
		Updates: updates,
		Reload:  reload,
		LoadConfig: func() (*config.Config, error) {
			res, err := config.LoadFromPath(configPath)
			if err != nil {
				return nil, err
			}
			return res.Config, nil
		},
		DetectScreen: detect,
		OnConfig: func(c *config.Config) {
			if !opts.debug {
				level.Set(parseLevel(c.LogLevel))
			}
		},
		Logger: logger,
	})
	normalizer := events.NewNormalizer(events.ClientSource{Client: client}, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return normalizer.Run(gctx, updates)
	})
	g.Go(func() error {
		return runner.Run(gctx)
	})

	watcher, err := config.NewWatcher(configPath, config.DefaultDebounce, reload, logger)
	if err != nil {
		logger.Warn("config file watching disabled", "error", err)
	} else {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	g.Go(func() error {
		return forwardSIGHUP(gctx, reload, logger)
	})

	server, err := ipc.NewServer(runner, logger)
	if err != nil {
		logger.Warn("control socket disabled", "error", err)
	} else {
		g.Go(func() error {
			if err := server.Serve(gctx); err != nil {
				logger.Warn("control socket disabled", "error", err)
			}
			return nil
		})
	}

	if useTUI {
		g.Go(func() error {
			defer cancel()
			return tui.Run(gctx, runner.Frames(), runner)
		})
	} else {
		g.Go(func() error {
			return logFrames(gctx, runner.Frames(), logger)
		})
	}

	return g.Wait()
}

// logDestination returns stderr, or a log file under $XDG_STATE_HOME while
// the TUI owns the terminal.
func logDestination(useTUI bool) (io.Writer, func()) {
	if !useTUI {
		return os.Stderr, func() {}
	}
	path, err := xdg.StateFile("nirimap/nirimap.log")
	if err != nil {
		return io.Discard, func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { f.Close() }
}

func forwardSIGHUP(ctx context.Context, reload chan<- struct{}, logger *slog.Logger) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			logger.Info("SIGHUP received, reloading config")
			select {
			case reload <- struct{}{}:
			default:
			}
		}
	}
}

// logFrames is the headless renderer: it logs visibility transitions.
func logFrames(ctx context.Context, frames <-chan daemon.Frame, logger *slog.Logger) error {
	var (
		seen    bool
		visible bool
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case f, ok := <-frames:
			if !ok {
				return errors.New("frame channel closed")
			}
			attrs := []any{"width", f.Width, "height", f.Height, "windows", len(f.Projection.Rects)}
			if f.WorkspaceID != nil {
				attrs = append(attrs, "workspace_id", *f.WorkspaceID)
			}
			if !seen || f.Visible != visible {
				seen, visible = true, f.Visible
				logger.Info("minimap "+visibilityWord(f.Visible), attrs...)
				continue
			}
			logger.Debug("frame", attrs...)
		}
	}
}

func visibilityWord(visible bool) string {
	if visible {
		return "shown"
	}
	return "hidden"
}
