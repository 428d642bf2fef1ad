package main

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-deskpilot/internal/config"
	"github.com/teslashibe/go-deskpilot/pkg/session"
)

func openSession(cfg *config.Config) (*session.Manager, error) {
	return session.NewManager(session.Config{
		Directory:   cfg.Session.SessionsDirectory,
		DefaultFile: cfg.Session.DefaultSessionFile,
		Logger:      slog.Default(),
	})
}

// newNewSessionCmd is registered both as "session new" and top-level
// "new-session".
func newNewSessionCmd(opts *rootOptions, use string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: "Start a new session file",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openSession(opts.cfg)
			if err != nil {
				return err
			}
			path, err := m.NewSession()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "New session started: %s\n", path)
			return nil
		},
	}
}

func newSessionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the markdown session log",
	}

	cmd.AddCommand(newNewSessionCmd(opts, "new"))

	var raw bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Render the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openSession(opts.cfg)
			if err != nil {
				return err
			}
			content, err := m.Content()
			if err != nil {
				return err
			}
			if raw {
				fmt.Fprint(cmd.OutOrStdout(), content)
				return nil
			}
			r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
			if err != nil {
				return err
			}
			out, err := r.Render(content)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	show.Flags().BoolVar(&raw, "raw", false, "print markdown without rendering")

	cmd.AddCommand(show, &cobra.Command{
		Use:   "path",
		Short: "Print the current session file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openSession(opts.cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.Path())
			return nil
		},
	})
	return cmd
}
