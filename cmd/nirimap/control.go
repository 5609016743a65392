package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/1broseidon/nirimap/internal/ipc"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show minimap status",
		Long:  "Show the running minimap's status via the control socket.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := ipc.NewClient().GetStatus()
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func printStatus(w io.Writer, s *ipc.StatusData) {
	fmt.Fprintf(w, "daemon_running:   %v\n", s.DaemonRunning)
	fmt.Fprintf(w, "visible:          %v\n", s.Visible)
	fmt.Fprintf(w, "always_visible:   %v\n", s.AlwaysVisible)
	fmt.Fprintf(w, "hide_pending:     %v\n", s.HidePending)
	fmt.Fprintf(w, "active_workspace: %s\n", optionalID(s.ActiveWorkspace))
	fmt.Fprintf(w, "focused_window:   %s\n", optionalID(s.FocusedWindow))
	fmt.Fprintf(w, "workspaces:       %d\n", s.WorkspaceCount)
	fmt.Fprintf(w, "windows:          %d\n", s.WindowCount)
	fmt.Fprintf(w, "size:             %dx%d\n", s.Width, s.Height)
	if s.Output != "" {
		fmt.Fprintf(w, "output:           %s\n", s.Output)
	}
	fmt.Fprintf(w, "uptime_seconds:   %d\n", s.UptimeSeconds)
}

func optionalID(id *uint64) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *id)
}

func newReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload the running minimap's config",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return ipc.NewClient().Reload()
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the minimap",
		Long:  "Show the minimap. Unless always_visible is set it hides again after hide_timeout_ms.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return ipc.NewClient().Show()
		},
	}
}

func newHideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hide",
		Short: "Hide the minimap",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return ipc.NewClient().Hide()
		},
	}
}

