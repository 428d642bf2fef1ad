package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-deskpilot/internal/config"
	"github.com/teslashibe/go-deskpilot/pkg/notes"
)

func openDocs(cfg *config.Config) (*notes.GoogleDocs, error) {
	return notes.NewGoogleDocs(notes.GoogleDocsConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		TokenPath:    cfg.Google.TokenFile,
		Logger:       slog.Default(),
	})
}

func newNotesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "List and export saved notes",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "Print saved notes as markdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			store, err := notes.Open(cmd.Context(), cfg.Actions.NotesBackend, cfg.Actions.NotesFile, cfg.Actions.NotesDatabase, slog.Default())
			if err != nil {
				return err
			}
			defer store.Close()

			all, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No notes saved yet.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), notes.Render(all))
			return nil
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 0, "show only the most recent notes (0 for all)")

	var code string
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Connect a Google account for exporting notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := openDocs(opts.cfg)
			if err != nil {
				return err
			}
			if code == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Open this URL, approve access, then rerun with --code:\n\n%s\n",
					g.AuthURL(uuid.NewString()))
				return nil
			}
			if err := g.Exchange(cmd.Context(), code); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Google account connected.")
			return nil
		},
	}
	auth.Flags().StringVar(&code, "code", "", "authorization code from the consent page")

	var title string
	export := &cobra.Command{
		Use:   "export",
		Short: "Export notes to a new Google Doc",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			g, err := openDocs(cfg)
			if err != nil {
				return err
			}
			if !g.Connected() {
				return fmt.Errorf("google account not connected; run \"deskpilot notes auth\" first")
			}

			store, err := notes.Open(cmd.Context(), cfg.Actions.NotesBackend, cfg.Actions.NotesFile, cfg.Actions.NotesDatabase, slog.Default())
			if err != nil {
				return err
			}
			defer store.Close()

			all, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if title == "" {
				title = "Assistant notes " + time.Now().Format(notes.TitleLayout)
			}
			id, err := g.Export(cmd.Context(), title, all)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d notes: %s\n", len(all), notes.DocURL(id))
			return nil
		},
	}
	export.Flags().StringVar(&title, "title", "", "document title")
	export.Flags().IntVarP(&limit, "limit", "n", 0, "export only the most recent notes (0 for all)")

	cmd.AddCommand(list, auth, export)
	return cmd
}
