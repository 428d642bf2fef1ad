package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-deskpilot/internal/config"
	"github.com/teslashibe/go-deskpilot/internal/log"
)

type rootOptions struct {
	configPath string
	logLevel   string

	// explicitConfig is set when --config was given; a missing file is
	// then an error instead of a fallback to defaults.
	explicitConfig bool
	stderr         io.Writer

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "deskpilot",
		Short:         "Voice-activated desktop assistant",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.explicitConfig = cmd.Flags().Changed("config")
			opts.stderr = cmd.ErrOrStderr()
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Close()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "path to the configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	cmd.AddCommand(
		newRunCmd(opts),
		newAskCmd(opts),
		newSessionCmd(opts),
		newNewSessionCmd(opts, "new-session"),
		newNotesCmd(opts),
		newPluginsCmd(opts),
		newHealthCmd(opts),
	)
	return cmd
}

// load reads the configuration and initialises logging. When the default
// file does not exist it falls back to defaults plus environment and says
// so on stderr, whatever the log level.
func (o *rootOptions) load() error {
	cfg, err := config.Load(o.configPath)
	missing := errors.Is(err, config.ErrNotFound)
	if missing && o.explicitConfig {
		return err
	}
	if missing {
		w := o.stderr
		if w == nil {
			w = os.Stderr
		}
		fmt.Fprintf(w, "deskpilot: no config file at %s, using defaults and environment\n", o.configPath)
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	if err := log.Init(level, cfg.Logging.File); err != nil {
		return err
	}
	if missing {
		slog.Warn("config file not found, using defaults", "path", o.configPath)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	o.cfg = cfg
	return nil
}
