package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-deskpilot/pkg/assistant"
	"github.com/teslashibe/go-deskpilot/pkg/hotkey"
	"github.com/teslashibe/go-deskpilot/pkg/web"
)

var bannerStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 2)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var noWeb, noSpeak bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the push-to-talk assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, cfg, appOptions{microphone: true, speak: !noSpeak, terminal: true})
			if err != nil {
				return err
			}
			defer a.Close()

			listener, err := hotkey.New(cfg.ShortcutKey(), hotkey.Handlers{
				OnPress:   a.assistant.OnPress,
				OnRelease: a.assistant.OnRelease,
			}, slog.Default())
			if err != nil {
				return err
			}
			a.assistant.SetSuppressor(listener)

			services := []assistant.Service{
				func(ctx context.Context) error {
					if err := listener.Start(ctx); err != nil {
						return err
					}
					<-ctx.Done()
					return listener.Stop()
				},
				a.events.Run,
				a.prompt.Watch,
			}

			dashboard := ""
			if cfg.Web.Enabled && !noWeb {
				srv, err := web.NewServer(web.Config{
					Addr:      cfg.Web.Addr,
					Assistant: a.assistant,
					Screen:    a.screen,
					Session:   a.session,
					Notes:     a.notes,
					Plugins:   a.plugins,
					Confirm:   a.prompter,
					Docs:      docsOrNil(a),
					Events:    a.events,
				})
				if err != nil {
					return err
				}
				services = append(services, srv.Run)
				dashboard = "\nDashboard: http://" + srv.Addr()
			}

			fmt.Println(bannerStyle.Render(fmt.Sprintf(
				"deskpilot\nHold %s and ask about your screen.\nSession: %s%s",
				listener.Shortcut(), a.session.Path(), dashboard)))

			return a.assistant.Run(ctx, services...)
		},
	}

	cmd.Flags().BoolVar(&noWeb, "no-web", false, "do not start the dashboard")
	cmd.Flags().BoolVar(&noSpeak, "no-speak", false, "print answers without speaking them")
	return cmd
}

// docsOrNil avoids handing the server a typed nil interface.
func docsOrNil(a *app) web.DocsExporter {
	if a.docs == nil {
		return nil
	}
	return a.docs
}
