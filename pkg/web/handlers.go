package web

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-deskpilot/pkg/confirm"
	"github.com/teslashibe/go-deskpilot/pkg/notes"
	"github.com/teslashibe/go-deskpilot/pkg/session"
)

// stateTTL bounds how long an OAuth state stays valid.
const stateTTL = 10 * time.Minute

// Status is the dashboard's view of the assistant.
type Status struct {
	Provider        string `json:"provider"`
	Busy            bool   `json:"busy"`
	Session         string `json:"session,omitempty"`
	PendingConfirm  bool   `json:"pending_confirmation"`
	GoogleConnected bool   `json:"google_connected"`
	Clients         int    `json:"clients"`
}

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// RespondRequest is the body of POST /api/confirm/:id.
type RespondRequest struct {
	Confirm bool `json:"confirm"`
}

// SessionResponse is returned by GET /api/session.
type SessionResponse struct {
	Path    string          `json:"path"`
	Entries []session.Entry `json:"entries"`
}

// ExportRequest is the body of POST /api/notes/export.
type ExportRequest struct {
	Title string `json:"title"`
	Limit int    `json:"limit"`
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	st := Status{
		Provider: s.cfg.Assistant.Provider(),
		Busy:     s.cfg.Assistant.Busy(),
	}
	if s.cfg.Session != nil {
		st.Session = s.cfg.Session.Path()
	}
	if s.cfg.Confirm != nil {
		_, st.PendingConfirm = s.cfg.Confirm.Pending()
	}
	if s.cfg.Docs != nil {
		st.GoogleConnected = s.cfg.Docs.Connected()
	}
	if s.cfg.Events != nil {
		st.Clients = s.cfg.Events.ClientCount()
	}
	return c.JSON(st)
}

func (s *Server) handleAsk(c *fiber.Ctx) error {
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return fiber.NewError(fiber.StatusBadRequest, "question is required")
	}
	if s.cfg.Screen == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "screen capture not configured")
	}
	if s.cfg.Assistant.Busy() {
		return fiber.NewError(fiber.StatusConflict, "assistant is busy")
	}

	ctx := c.UserContext()
	img, err := s.cfg.Screen.Capture(ctx)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("capture screen: %v", err))
	}

	res, err := s.cfg.Assistant.Ask(ctx, req.Question, img)
	if isBusy(err) {
		return fiber.NewError(fiber.StatusConflict, "assistant is busy")
	}
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// isBusy matches errors reporting that another query holds the assistant.
func isBusy(err error) bool {
	var b interface{ Busy() bool }
	return errors.As(err, &b) && b.Busy()
}

func (s *Server) handleSession(c *fiber.Ctx) error {
	if s.cfg.Session == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "session log not configured")
	}
	entries, err := s.cfg.Session.Entries()
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []session.Entry{}
	}
	return c.JSON(SessionResponse{Path: s.cfg.Session.Path(), Entries: entries})
}

func (s *Server) handleListNotes(c *fiber.Ctx) error {
	if s.cfg.Notes == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "notes not configured")
	}
	list, err := s.cfg.Notes.List(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	if list == nil {
		list = []notes.Note{}
	}
	return c.JSON(list)
}

func (s *Server) handleExportNotes(c *fiber.Ctx) error {
	if s.cfg.Notes == nil || s.cfg.Docs == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "google docs export not configured")
	}
	if !s.cfg.Docs.Connected() {
		return fiber.NewError(fiber.StatusPreconditionRequired, "google account not connected; open /api/google/auth")
	}

	var req ExportRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	if req.Title == "" {
		req.Title = "Assistant notes " + time.Now().Format(notes.TitleLayout)
	}

	ctx := c.UserContext()
	list, err := s.cfg.Notes.List(ctx, req.Limit)
	if err != nil {
		return err
	}
	id, err := s.cfg.Docs.Export(ctx, req.Title, list)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"document_id": id, "url": notes.DocURL(id), "notes": len(list)})
}

func (s *Server) handleListPlugins(c *fiber.Ctx) error {
	if s.cfg.Plugins == nil {
		return c.JSON([]any{})
	}
	return c.JSON(s.cfg.Plugins.Available())
}

func (s *Server) handlePending(c *fiber.Ctx) error {
	if s.cfg.Confirm == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	req, ok := s.cfg.Confirm.Pending()
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(req)
}

func (s *Server) handleRespond(c *fiber.Ctx) error {
	if s.cfg.Confirm == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "confirmations not configured")
	}
	var req RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	err := s.cfg.Confirm.Respond(c.Params("id"), req.Confirm)
	switch {
	case errors.Is(err, confirm.ErrNoPending), errors.Is(err, confirm.ErrUnknownRequest):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case err != nil:
		return err
	}
	return c.JSON(fiber.Map{"id": c.Params("id"), "confirmed": req.Confirm})
}

func (s *Server) handleGoogleAuth(c *fiber.Ctx) error {
	if s.cfg.Docs == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "google docs not configured")
	}
	state := uuid.NewString()
	s.statesMu.Lock()
	now := time.Now()
	for k, issued := range s.states {
		if now.Sub(issued) > stateTTL {
			delete(s.states, k)
		}
	}
	s.states[state] = now
	s.statesMu.Unlock()
	return c.Redirect(s.cfg.Docs.AuthURL(state), fiber.StatusFound)
}

func (s *Server) handleGoogleCallback(c *fiber.Ctx) error {
	if s.cfg.Docs == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "google docs not configured")
	}
	if msg := c.Query("error"); msg != "" {
		return fiber.NewError(fiber.StatusBadRequest, "authorization denied: "+msg)
	}
	if !s.consumeState(c.Query("state")) {
		return fiber.NewError(fiber.StatusBadRequest, "unknown or expired state")
	}
	code := c.Query("code")
	if code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing authorization code")
	}
	if err := s.cfg.Docs.Exchange(c.UserContext(), code); err != nil {
		return err
	}
	s.logger.Info("google account connected")
	return c.SendString("Google account connected. You can close this window.")
}

func (s *Server) consumeState(state string) bool {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	issued, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return time.Since(issued) <= stateTTL
}
