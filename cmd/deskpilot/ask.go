package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-deskpilot/pkg/screenshot"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		imagePath string
		noSpeak   bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question about the current screen",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, opts.cfg, appOptions{speak: !noSpeak, terminal: true})
			if err != nil {
				return err
			}
			defer a.Close()

			var img *screenshot.Image
			if imagePath != "" {
				img, err = readImage(imagePath)
			} else {
				img, err = a.screen.Capture(ctx)
			}
			if err != nil {
				return err
			}

			res, err := a.assistant.Ask(ctx, strings.Join(args, " "), img)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Speech)
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "use this PNG or JPEG instead of capturing the screen")
	cmd.Flags().BoolVar(&noSpeak, "no-speak", false, "do not speak the answer")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full processed result as JSON")
	return cmd
}

func readImage(path string) (*screenshot.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mime := "image/png"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	case ".png":
	default:
		return nil, fmt.Errorf("%w: %s", screenshot.ErrUnsupportedFormat, filepath.Ext(path))
	}
	return &screenshot.Image{Data: data, MIMEType: mime}, nil
}
