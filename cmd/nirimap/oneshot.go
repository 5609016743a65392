package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/1broseidon/nirimap/internal/config"
	"github.com/1broseidon/nirimap/internal/display"
	"github.com/1broseidon/nirimap/internal/events"
	"github.com/1broseidon/nirimap/internal/niri"
	"github.com/1broseidon/nirimap/internal/state"
	"github.com/1broseidon/nirimap/internal/tiling"
)

const oneShotTimeout = 5 * time.Second

// fetchState takes a one-shot snapshot straight from niri.
func fetchState(ctx context.Context, debug bool) (*niri.Client, *state.Store, error) {
	client, err := niri.NewClient()
	if err != nil {
		return nil, nil, err
	}
	normalizer := events.NewNormalizer(events.ClientSource{Client: client}, quietLogger(debug))
	st, err := normalizer.FetchFullState(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query niri: %w", err)
	}
	return client, st, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newStateCmd() *cobra.Command {
	var (
		jsonOut bool
		debug   bool
	)
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print niri workspaces and windows",
		Long:  "Query niri once and print the workspaces and windows the minimap would track.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
			defer cancel()

			_, st, err := fetchState(ctx, debug)
			if err != nil {
				return err
			}
			snap := st.Snapshot()
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), snap)
			}
			printSnapshot(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&debug, "debug", false, "Log normalization details")
	return cmd
}

func printSnapshot(w io.Writer, snap state.Snapshot) {
	if snap.OutputName != "" {
		fmt.Fprintf(w, "output: %s\n", snap.OutputName)
	}
	if len(snap.Workspaces) == 0 {
		fmt.Fprintln(w, "no workspaces")
		return
	}
	for _, ws := range snap.Workspaces {
		fmt.Fprintf(w, "workspace %d", ws.ID)
		if ws.Name != "" {
			fmt.Fprintf(w, " %q", ws.Name)
		}
		if ws.Output != "" {
			fmt.Fprintf(w, " on %s", ws.Output)
		}
		if ws.Active {
			fmt.Fprint(w, " (active)")
		}
		fmt.Fprintln(w)

		for _, win := range ws.Windows {
			place := fmt.Sprintf("col %d row %d", win.Column, win.Index)
			if win.Floating {
				place = "floating"
			}
			fmt.Fprintf(w, "  - %d  %-16s %5.0fx%-5.0f %s", win.ID, place, win.Size.Width, win.Size.Height, win.AppID)
			if win.Title != "" {
				fmt.Fprintf(w, "  %q", win.Title)
			}
			if win.Focused {
				fmt.Fprint(w, "  [focused]")
			}
			fmt.Fprintln(w)
		}
	}
}

type layoutResult struct {
	WorkspaceID *uint64           `json:"workspace_id,omitempty"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Screen      display.Screen    `json:"screen"`
	Projection  tiling.Projection `json:"projection"`
}

func newLayoutCmd() *cobra.Command {
	var (
		height      int
		workspaceID uint64
		configPath  string
		jsonOut     bool
		debug       bool
	)
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the minimap projection of a workspace",
		Long: `Query niri once and print the minimap rectangles for the active workspace
(or --workspace), sized the way the running minimap would size them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfigFrom(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("height") {
				if height < config.MinHeight {
					return usageError("--height must be >= %d", config.MinHeight)
				}
				cfg.Display.Height = height
			}

			ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
			defer cancel()

			client, st, err := fetchState(ctx, debug)
			if err != nil {
				return err
			}

			var ws *state.Workspace
			if cmd.Flags().Changed("workspace") {
				found, ok := st.Workspace(workspaceID)
				if !ok {
					return fmt.Errorf("workspace %d not found", workspaceID)
				}
				ws = found
			} else if active, ok := st.ActiveWorkspace(); ok {
				ws = active
			}

			x11Monitors, closeX11 := display.ConnectX11()
			defer closeX11()
			detector := &display.Detector{Niri: client, X11: x11Monitors, Logger: quietLogger(debug)}

			res := projectLayout(ws, cfg, detector.Detect(ctx))
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printLayout(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().IntVar(&height, "height", 0, "Minimap height in pixels (default: display.height)")
	cmd.Flags().Uint64Var(&workspaceID, "workspace", 0, "Workspace id (default: active workspace)")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file path")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&debug, "debug", false, "Log normalization and screen detection details")
	return cmd
}

func projectLayout(ws *state.Workspace, cfg *config.Config, screen display.Screen) layoutResult {
	height := cfg.Display.Height
	width := tiling.BoxWidth(ws, height, tiling.DefaultPadding, cfg.Display.MaxWidthPercent, screen.Width)
	res := layoutResult{
		Width:  width,
		Height: height,
		Screen: screen,
		Projection: tiling.Project(ws,
			tiling.Box{Width: float64(width), Height: float64(height)},
			tiling.Style{Padding: tiling.DefaultPadding, Gap: cfg.Appearance.Gap},
		),
	}
	if ws != nil {
		id := ws.ID
		res.WorkspaceID = &id
	}
	return res
}

func printLayout(w io.Writer, res layoutResult) {
	fmt.Fprintf(w, "workspace: %s\n", optionalID(res.WorkspaceID))
	fmt.Fprintf(w, "size:      %dx%d (screen %dx%d from %s)\n",
		res.Width, res.Height, res.Screen.Width, res.Screen.Height, res.Screen.Source)
	if res.Projection.Empty {
		fmt.Fprintln(w, "empty")
		return
	}
	fmt.Fprintf(w, "natural:   %.0fx%.0f\n", res.Projection.Natural.Width, res.Projection.Natural.Height)
	fmt.Fprintf(w, "scale:     %.4f\n", res.Projection.Scale)
	for _, r := range res.Projection.Rects {
		focus := ""
		if r.Focused {
			focus = "  [focused]"
		}
		fmt.Fprintf(w, "  - %d  x=%.1f y=%.1f w=%.1f h=%.1f%s\n", r.WindowID, r.X, r.Y, r.Width, r.Height, focus)
	}
}
