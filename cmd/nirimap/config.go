package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/nirimap/internal/config"
	"github.com/1broseidon/nirimap/internal/tui"
)

func newConfigCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the configuration",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "Config file path (default: $XDG_CONFIG_HOME/nirimap/config.yaml)")

	resolve := func() (string, error) {
		if path != "" {
			return path, nil
		}
		return config.DefaultConfigPath()
	}
	load := func() (*config.LoadResult, error) {
		if path == "" {
			return config.LoadWithSources()
		}
		return config.LoadFromPath(path)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := resolve()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := load(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config: ok")
			return nil
		},
	})

	var printDefaults bool
	printCmd := &cobra.Command{
		Use:   "print",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultConfig()
			if !printDefaults {
				res, err := load()
				if err != nil {
					return err
				}
				cfg = res.Config
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	printCmd.Flags().BoolVar(&printDefaults, "defaults", false, "Print built-in defaults (no files)")
	cmd.AddCommand(printCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "explain <yaml.path>",
		Short: "Explain a config value and where it came from",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageError("explain requires <yaml.path>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := load()
			if err != nil {
				return err
			}
			value, src, err := config.Explain(res, args[0])
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(value)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "path: %s\n", args[0])
			fmt.Fprintf(w, "source: %s\n", config.FormatSource(src))
			fmt.Fprintf(w, "value:\n%s", string(out))
			return nil
		},
	})

	var writeDefaults bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create or edit the config file interactively",
		Long: `Walk through the common settings and write the config file.

The form starts from the current file (or the defaults). Saving rewrites the
file without its comments. Use --defaults to write the commented default file
instead; this is also what happens when stdin is not a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := resolve()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if writeDefaults || !term.IsTerminal(int(os.Stdin.Fd())) {
				if err := config.WriteDefaultFile(p); err != nil {
					return err
				}
				fmt.Fprintf(w, "wrote %s\n", p)
				return nil
			}

			res, err := config.LoadFromPath(p)
			if err != nil {
				return err
			}
			cfg, err := tui.InitWizard(res.Config)
			if err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					fmt.Fprintln(w, "aborted, nothing written")
					return nil
				}
				return err
			}
			if err := cfg.SaveTo(p); err != nil {
				return err
			}
			fmt.Fprintf(w, "wrote %s\n", p)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&writeDefaults, "defaults", false, "Write the commented default file, replacing any existing file")
	cmd.AddCommand(initCmd)

	return cmd
}
