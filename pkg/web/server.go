// Package web serves the assistant's local dashboard API and event stream.
package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/teslashibe/go-deskpilot/pkg/confirm"
	"github.com/teslashibe/go-deskpilot/pkg/hub"
	"github.com/teslashibe/go-deskpilot/pkg/notes"
	"github.com/teslashibe/go-deskpilot/pkg/plugin"
	"github.com/teslashibe/go-deskpilot/pkg/response"
	"github.com/teslashibe/go-deskpilot/pkg/screenshot"
	"github.com/teslashibe/go-deskpilot/pkg/session"
)

// DefaultAddr is the dashboard listen address.
const DefaultAddr = "127.0.0.1:8765"

const shutdownTimeout = 5 * time.Second

// Asker answers questions about a screenshot.
type Asker interface {
	// Ask fails with an error whose Busy method reports true while another
	// query is running.
	Ask(ctx context.Context, question string, img *screenshot.Image) (*response.Result, error)
	Busy() bool
	Provider() string
}

// Capturer grabs the screen for questions typed into the dashboard.
type Capturer interface {
	Capture(ctx context.Context) (*screenshot.Image, error)
}

// SessionReader exposes the active session log.
type SessionReader interface {
	Path() string
	Entries() ([]session.Entry, error)
}

// NoteLister lists saved notes.
type NoteLister interface {
	List(ctx context.Context, limit int) ([]notes.Note, error)
}

// PluginLister lists loaded plugins.
type PluginLister interface {
	Available() []plugin.Info
}

// Confirmations exposes the open action confirmation.
type Confirmations interface {
	Pending() (confirm.Request, bool)
	Respond(id string, yes bool) error
}

// DocsExporter connects to Google Docs and exports notes.
type DocsExporter interface {
	Connected() bool
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) error
	Export(ctx context.Context, title string, list []notes.Note) (string, error)
}

// Config wires the server to the assistant. Only Assistant is required;
// routes backed by a nil component answer 503.
type Config struct {
	Addr      string
	Assistant Asker
	Screen    Capturer
	Session   SessionReader
	Notes     NoteLister
	Plugins   PluginLister
	Confirm   Confirmations
	Docs      DocsExporter
	Events    *hub.Hub

	// AccessLog receives request logs. Defaults to os.Stderr.
	AccessLog io.Writer
	Logger    *slog.Logger
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg    Config
	app    *fiber.App
	logger *slog.Logger

	// OAuth states issued by /api/google/auth.
	statesMu sync.Mutex
	states   map[string]time.Time
}

// NewServer creates the server and registers its routes.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Assistant == nil {
		return nil, errors.New("web: assistant is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.AccessLog == nil {
		cfg.AccessLog = os.Stderr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "web"),
		states: make(map[string]time.Time),
	}

	app := fiber.New(fiber.Config{
		AppName:               "deskpilot",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{Output: cfg.AccessLog}))
	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/ask", s.handleAsk)
	api.Get("/session", s.handleSession)
	api.Get("/notes", s.handleListNotes)
	api.Post("/notes/export", s.handleExportNotes)
	api.Get("/plugins", s.handleListPlugins)
	api.Get("/confirm", s.handlePending)
	api.Post("/confirm/:id", s.handleRespond)
	api.Get("/google/auth", s.handleGoogleAuth)
	api.Get("/google/callback", s.handleGoogleCallback)

	if cfg.Events != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/events", websocket.New(cfg.Events.Serve))
	}

	s.app = app
	return s, nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "url", "http://"+s.cfg.Addr)
		errCh <- s.app.Listen(s.cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		s.logger.Warn("dashboard shutdown", "error", err)
	}
	<-errCh
	return nil
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
