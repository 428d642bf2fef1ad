package notes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	js, err := NewJSONStore(filepath.Join(dir, "notes", "notes.json"), nil)
	require.NoError(t, err)
	sq, err := NewSQLiteStore(context.Background(), filepath.Join(dir, "notes.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	return map[string]Store{"json": js, "sqlite": sq}
}

func TestStoreContract(t *testing.T) {
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			n, err := s.Add(ctx, Note{Content: "first", RelatedQuestion: "what?"})
			require.NoError(t, err)
			assert.NotEmpty(t, n.ID)
			assert.False(t, n.CreatedAt.IsZero())
			assert.True(t, strings.HasPrefix(n.Title, "Note from "), n.Title)

			for _, c := range []string{"second", "third"} {
				_, err := s.Add(ctx, Note{Title: c, Content: c})
				require.NoError(t, err)
			}

			all, err := s.List(ctx, 0)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "first", all[0].Content)
			assert.Equal(t, "what?", all[0].RelatedQuestion)

			last, err := s.List(ctx, 2)
			require.NoError(t, err)
			require.Len(t, last, 2)
			assert.Equal(t, "second", last[0].Title)
			assert.Equal(t, "third", last[1].Title)

			_, err = s.Add(ctx, Note{Title: "empty", Content: "  "})
			assert.ErrorIs(t, err, ErrEmptyContent)
		})
	}
}

func TestJSONStoreFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.json")
	s, err := NewJSONStore(path, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"notes": []}`, string(data), "fresh file has empty list")

	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	_, err = s.Add(context.Background(), Note{Content: "body", RelatedQuestion: "q"})
	require.NoError(t, err)

	var raw map[string][]map[string]any
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw["notes"], 1)
	got := raw["notes"][0]
	assert.Equal(t, "Note from 2024-01-02 03:04:05", got["title"])
	assert.Equal(t, "body", got["content"])
	assert.Equal(t, "q", got["related_question"])
	assert.Equal(t, "2024-01-02T03:04:05Z", got["created_at"])
	assert.NotEmpty(t, got["id"])
}

func TestJSONStoreRecoversFromCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := NewJSONStore(path, nil)
	require.NoError(t, err)

	list, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.Add(context.Background(), Note{Title: "t", Content: "c"})
	require.NoError(t, err)

	list, err = s.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	backup, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(backup))
}

func TestJSONStoreReadsLegacyTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.json")
	legacy := `{
  "notes": [
    {
      "id": "6f1c",
      "title": "Old",
      "content": "kept",
      "created_at": "2024-05-01T10:20:30.123456",
      "related_question": "what was this?"
    }
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s, err := NewJSONStore(path, nil)
	require.NoError(t, err)
	_, err = s.Add(context.Background(), Note{Title: "new", Content: "added"})
	require.NoError(t, err)

	list, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Old", list[0].Title)
	want := time.Date(2024, 5, 1, 10, 20, 30, 123456000, time.Local)
	assert.True(t, want.Equal(list[0].CreatedAt), "created_at = %v", list[0].CreatedAt)
	assert.Equal(t, "new", list[1].Title)

	_, err = os.Stat(path + ".bak")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestJSONStoreKeepsUndecodableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.json")
	content := `{"notes": [{"id": "1", "content": "c", "created_at": "yesterday"}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := NewJSONStore(path, nil)
	require.NoError(t, err)

	_, err = s.Add(context.Background(), Note{Content: "new"})
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestJSONStoreConcurrentAdds(t *testing.T) {
	s, err := NewJSONStore(filepath.Join(t.TempDir(), "notes.json"), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Add(context.Background(), Note{Content: "c"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, list, 10)
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(ctx, "", filepath.Join(dir, "n.json"), "", nil)
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, s)

	s, err = Open(ctx, "SQLite", "", filepath.Join(dir, "n.db"), nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	s.Close()

	_, err = Open(ctx, "redis", "", "", nil)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	out := Render([]Note{{
		Title:           "Title",
		Content:         "Body",
		CreatedAt:       time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		RelatedQuestion: "Why?",
	}})
	assert.Equal(t, "Title\n2024-01-02 03:04:05\nQ: Why?\n\nBody\n", out)
}

func TestGoogleDocsRequiresCredentials(t *testing.T) {
	_, err := NewGoogleDocs(GoogleDocsConfig{})
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestGoogleDocsAuthURL(t *testing.T) {
	g, err := NewGoogleDocs(GoogleDocsConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenPath:    filepath.Join(t.TempDir(), "token.json"),
	})
	require.NoError(t, err)
	assert.False(t, g.Connected())

	u := g.AuthURL("state-1")
	assert.Contains(t, u, "accounts.google.com")
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "state=state-1")

	_, err = g.Export(context.Background(), "t", nil)
	assert.True(t, errors.Is(err, ErrNotAuthenticated))
}

func TestGoogleDocsExport(t *testing.T) {
	var (
		mu        sync.Mutex
		inserted  string
		authSeen  string
		createdAs string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		authSeen = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/documents":
			var doc map[string]any
			json.Unmarshal(body, &doc)
			createdAs, _ = doc["title"].(string)
			w.Write([]byte(`{"documentId": "doc-123", "title": "x"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/documents/doc-123:batchUpdate":
			var req struct {
				Requests []struct {
					InsertText struct {
						Text string `json:"text"`
					} `json:"insertText"`
				} `json:"requests"`
			}
			json.Unmarshal(body, &req)
			if len(req.Requests) == 1 {
				inserted = req.Requests[0].InsertText.Text
			}
			w.Write([]byte(`{"documentId": "doc-123"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	g, err := NewGoogleDocs(GoogleDocsConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenPath:    filepath.Join(t.TempDir(), "token.json"),
		Endpoint:     srv.URL + "/",
	})
	require.NoError(t, err)
	require.NoError(t, g.SetToken(context.Background(), &oauth2.Token{AccessToken: "tok", TokenType: "Bearer"}))
	assert.True(t, g.Connected())

	id, err := g.Export(context.Background(), "My notes", []Note{{Title: "A", Content: "alpha"}})
	require.NoError(t, err)
	assert.Equal(t, "doc-123", id)
	assert.Equal(t, "https://docs.google.com/document/d/doc-123/edit", DocURL(id))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "My notes", createdAs)
	assert.Contains(t, inserted, "alpha")
	assert.Equal(t, "Bearer tok", authSeen)
}
