package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-deskpilot/pkg/plugin"
)

func newPluginsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect plugins",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List plugins loaded from the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := plugin.NewManager(opts.cfg.Plugins, slog.Default())
			if err := m.Load(); err != nil {
				return err
			}
			infos := m.Available()
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No plugins loaded.")
				return nil
			}
			for _, info := range infos {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-8s %s\n", info.Name, info.Source, info.Description)
			}
			return nil
		},
	})
	return cmd
}
