package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/teslashibe/go-deskpilot/internal/config"
	"github.com/teslashibe/go-deskpilot/pkg/actions"
	"github.com/teslashibe/go-deskpilot/pkg/assistant"
	"github.com/teslashibe/go-deskpilot/pkg/audioio"
	"github.com/teslashibe/go-deskpilot/pkg/confirm"
	"github.com/teslashibe/go-deskpilot/pkg/hub"
	"github.com/teslashibe/go-deskpilot/pkg/inference"
	"github.com/teslashibe/go-deskpilot/pkg/macro"
	"github.com/teslashibe/go-deskpilot/pkg/notes"
	"github.com/teslashibe/go-deskpilot/pkg/plugin"
	"github.com/teslashibe/go-deskpilot/pkg/prompt"
	"github.com/teslashibe/go-deskpilot/pkg/response"
	"github.com/teslashibe/go-deskpilot/pkg/screenshot"
	"github.com/teslashibe/go-deskpilot/pkg/session"
	"github.com/teslashibe/go-deskpilot/pkg/stt"
	"github.com/teslashibe/go-deskpilot/pkg/tts"
)

// appOptions selects which optional components are built.
type appOptions struct {
	microphone bool // recorder and transcriber
	speak      bool // TTS playback, if enabled in config
	terminal   bool // answer confirmations from stdin
}

// app holds every component of a running assistant.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	session   *session.Manager
	notes     notes.Store
	docs      *notes.GoogleDocs
	prompter  *confirm.Prompter
	plugins   *plugin.Manager
	prompt    *prompt.Loader
	events    *hub.Hub
	screen    *screenshot.Capturer
	provider  inference.Provider
	device    *audioio.Device
	speaker   *tts.Speaker
	assistant *assistant.Assistant

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (a *app, err error) {
	logger := slog.Default()
	a = &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.session, err = session.NewManager(session.Config{
		Directory:    cfg.Session.SessionsDirectory,
		DefaultFile:  cfg.Session.DefaultSessionFile,
		NewOnStartup: cfg.NewSessionOnStartup(),
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	a.notes, err = notes.Open(ctx, cfg.Actions.NotesBackend, cfg.Actions.NotesFile, cfg.Actions.NotesDatabase, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.notes.Close)

	a.docs, err = notes.NewGoogleDocs(notes.GoogleDocsConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		TokenPath:    cfg.Google.TokenFile,
		Logger:       logger,
	})
	if errors.Is(err, notes.ErrNoCredentials) {
		a.docs, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	a.events = hub.New("events", logger)

	promptCfg := confirm.Config{
		Out:      os.Stdout,
		Timeout:  cfg.Actions.ConfirmTimeout(),
		Notifier: confirm.Desktop{},
		Logger:   logger,
		OnPending: func(req *confirm.Request) {
			if req != nil {
				a.events.Publish(hub.NewEvent(hub.EventConfirm, req.Message, req))
			}
		},
	}
	if opts.terminal {
		promptCfg.In = os.Stdin
	}
	a.prompter = confirm.New(promptCfg)
	a.closers = append(a.closers, a.prompter.Close)

	var kb macro.Keyboard
	if sys, kerr := macro.NewSystemKeyboard(); kerr != nil {
		logger.Warn("keyboard macros unavailable", "error", kerr)
	} else {
		kb = sys
	}
	var player actions.MacroPlayer
	if kb != nil {
		mcfg := macro.DefaultConfig()
		mcfg.Logger = logger
		player = macro.NewPlayer(kb, mcfg)
	}

	runner := actions.NewManager(actions.Config{
		Clipboard:   actions.SystemClipboard{},
		Notes:       a.notes,
		Macro:       player,
		Confirmer:   a.prompter,
		AutoExecute: cfg.Actions.AutoExecute,
		Confirm:     cfg.Actions.Confirm,
		Logger:      logger,
	})

	a.plugins = plugin.NewManager(cfg.Plugins, logger)
	if err := a.plugins.Load(); err != nil {
		logger.Warn("plugin loading failed", "error", err)
	}

	a.prompt = prompt.NewLoader(cfg.AI.SystemPromptFile, logger)

	a.screen, err = screenshot.New(screenshot.Config{
		Display:  cfg.Screenshot.Display,
		Format:   cfg.Screenshot.Format,
		Quality:  cfg.Screenshot.Quality,
		MaxWidth: cfg.Screenshot.MaxWidth,
	}, logger)
	if err != nil {
		return nil, err
	}

	a.provider, err = inference.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.provider.Close)

	if opts.microphone || (opts.speak && cfg.TTSEnabled()) {
		dcfg := audioio.DefaultConfig()
		dcfg.SampleRate = cfg.Audio.SampleRate
		dcfg.Channels = cfg.Audio.Channels
		a.device, err = audioio.Open(dcfg, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, a.device.Close)
	}

	var speaker assistant.Speaker
	if opts.speak && cfg.TTSEnabled() {
		synth, terr := tts.NewFromConfig(cfg.Speech.TTS, logger)
		if terr != nil {
			logger.Warn("speech output disabled", "error", terr)
		} else {
			a.speaker = tts.NewSpeaker(synth, a.device, logger)
			a.closers = append(a.closers, a.speaker.Close)
			speaker = a.speaker
		}
	}

	acfg := assistant.Config{
		Screen:         a.screen,
		Provider:       a.provider,
		Processor:      response.NewProcessor(runner, logger),
		Session:        a.session,
		Plugins:        a.plugins,
		Speaker:        speaker,
		Prompt:         a.prompt,
		Events:         a.events,
		MaxTokens:      cfg.AI.MaxTokens,
		Temperature:    cfg.AI.Temperature,
		HistoryEntries: cfg.Session.HistoryEntries,
		Logger:         logger,
	}
	if opts.microphone {
		acfg.Recorder = a.device
		acfg.Transcriber, err = stt.NewFromConfig(cfg.Speech.STT, cfg.Audio.SampleRate, logger)
		if err != nil {
			return nil, err
		}
	}

	a.assistant, err = assistant.New(acfg)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases components in reverse creation order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
