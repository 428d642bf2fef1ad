package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

// Google Docs errors.
var (
	ErrNoCredentials    = errors.New("notes: google client id and secret are required")
	ErrNotAuthenticated = errors.New("notes: not connected to Google, open the auth URL first")
)

// GoogleDocsConfig configures the exporter.
type GoogleDocsConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenPath    string

	// Endpoint overrides the Docs API base URL.
	Endpoint string
	Logger   *slog.Logger
}

// GoogleDocs exports notes into new Google Docs documents.
type GoogleDocs struct {
	oauth     *oauth2.Config
	tokenPath string
	endpoint  string
	logger    *slog.Logger

	mu      sync.RWMutex
	token   *oauth2.Token
	service *docs.Service
}

// NewGoogleDocs creates an exporter and loads a saved token if present.
func NewGoogleDocs(cfg GoogleDocsConfig) (*GoogleDocs, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNoCredentials
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = "http://127.0.0.1:8765/api/google/callback"
	}
	if cfg.TokenPath == "" {
		cfg.TokenPath = filepath.Join("config", "google_token.json")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	g := &GoogleDocs{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{docs.DocumentsScope, docs.DriveFileScope},
			Endpoint:     google.Endpoint,
		},
		tokenPath: cfg.TokenPath,
		endpoint:  cfg.Endpoint,
		logger:    cfg.Logger.With("component", "notes.google"),
	}

	if tok, err := g.loadToken(); err == nil {
		if err := g.setToken(context.Background(), tok); err != nil {
			g.logger.Warn("saved google token unusable", "error", err)
		}
	}
	return g, nil
}

// Connected reports whether a token is loaded.
func (g *GoogleDocs) Connected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.service != nil
}

// AuthURL returns the consent URL for the user to open.
func (g *GoogleDocs) AuthURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and saves it.
func (g *GoogleDocs) Exchange(ctx context.Context, code string) error {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("notes: exchange code: %w", err)
	}
	if err := g.setToken(ctx, tok); err != nil {
		return err
	}
	if err := g.saveToken(tok); err != nil {
		g.logger.Warn("failed to save google token", "error", err)
	}
	return nil
}

// SetToken installs a token directly.
func (g *GoogleDocs) SetToken(ctx context.Context, tok *oauth2.Token) error {
	return g.setToken(ctx, tok)
}

func (g *GoogleDocs) setToken(ctx context.Context, tok *oauth2.Token) error {
	opts := []option.ClientOption{option.WithHTTPClient(g.oauth.Client(context.Background(), tok))}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	svc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("notes: create docs service: %w", err)
	}
	g.mu.Lock()
	g.token = tok
	g.service = svc
	g.mu.Unlock()
	return nil
}

// Export creates a document titled title containing the rendered notes
// and returns its ID.
func (g *GoogleDocs) Export(ctx context.Context, title string, list []Note) (string, error) {
	g.mu.RLock()
	svc := g.service
	g.mu.RUnlock()
	if svc == nil {
		return "", ErrNotAuthenticated
	}

	doc, err := svc.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("notes: create document: %w", err)
	}

	text := Render(list)
	if text == "" {
		return doc.DocumentId, nil
	}
	_, err = svc.Documents.BatchUpdate(doc.DocumentId, &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: 1},
				Text:     text,
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return doc.DocumentId, fmt.Errorf("notes: created document but failed to add content: %w", err)
	}
	g.logger.Info("exported notes", "doc_id", doc.DocumentId, "count", len(list))
	return doc.DocumentId, nil
}

// DocURL returns the edit URL of a document.
func DocURL(id string) string {
	return "https://docs.google.com/document/d/" + id + "/edit"
}

func (g *GoogleDocs) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(g.tokenPath)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (g *GoogleDocs) saveToken(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(g.tokenPath), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(g.tokenPath, data, 0o600)
}
