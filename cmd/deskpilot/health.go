package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-deskpilot/pkg/inference"
	"github.com/teslashibe/go-deskpilot/pkg/tts"
)

const healthTimeout = 15 * time.Second

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check model and speech provider credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
			defer cancel()

			var failed bool
			report := func(name string, err error) {
				if err != nil {
					failed = true
					fmt.Fprintf(cmd.OutOrStdout(), "❌ %s: %v\n", name, err)
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ %s\n", name)
			}

			p, err := inference.NewFromConfig(cfg, slog.Default())
			if err != nil {
				report("inference", err)
			} else {
				report("inference ("+p.Name()+")", p.Health(ctx))
				p.Close()
			}

			if cfg.TTSEnabled() {
				t, err := tts.NewFromConfig(cfg.Speech.TTS, slog.Default())
				if err != nil {
					report("tts", err)
				} else {
					report("tts ("+cfg.Speech.TTS.Engine+")", t.Health(ctx))
					t.Close()
				}
			}

			if failed {
				return errors.New("one or more providers are unhealthy")
			}
			return nil
		},
	}
}
