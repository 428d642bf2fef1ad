package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func chatReply(content string) map[string]interface{} {
	return map[string]interface{}{
		"model": "gpt-4o-2024",
		"choices": []map[string]interface{}{
			{
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{"prompt_tokens": 900, "completion_tokens": 30, "total_tokens": 930},
	}
}

func TestOpenAIAsk(t *testing.T) {
	var got struct {
		Model       string                   `json:"model"`
		MaxTokens   int                      `json:"max_tokens"`
		Temperature float64                  `json:"temperature"`
		Messages    []map[string]interface{} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Bearer auth, got %s", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(chatReply(`{"speech": "It's a stack trace."}`))
	}))
	defer server.Close()

	p, err := NewOpenAI(WithBaseURL(server.URL), WithAPIKey("test-key"), WithModel("gpt-4o"))
	if err != nil {
		t.Fatalf("NewOpenAI failed: %v", err)
	}
	defer p.Close()

	ans, err := p.Ask(context.Background(), &Query{
		Question:     "What is this?",
		Image:        &Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"},
		History:      "## Question\n\nhi",
		SystemPrompt: "Reply in JSON.",
	})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if ans.Text != `{"speech": "It's a stack trace."}` {
		t.Errorf("Unexpected text: %s", ans.Text)
	}
	if ans.Provider != "openai" || ans.Model != "gpt-4o-2024" {
		t.Errorf("Unexpected provider/model: %s/%s", ans.Provider, ans.Model)
	}
	if ans.Usage.TotalTokens != 930 {
		t.Errorf("Expected 930 tokens, got %d", ans.Usage.TotalTokens)
	}

	if got.Model != "gpt-4o" || got.MaxTokens != 1024 || got.Temperature != 0.2 {
		t.Errorf("Unexpected generation settings: %+v", got)
	}
	if len(got.Messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(got.Messages))
	}
	if got.Messages[0]["role"] != "system" || got.Messages[0]["content"] != "Reply in JSON." {
		t.Errorf("Unexpected system message: %v", got.Messages[0])
	}
	if got.Messages[1]["content"] != "Context: Previous conversation:\n## Question\n\nhi" {
		t.Errorf("Unexpected history message: %q", got.Messages[1]["content"])
	}

	content, ok := got.Messages[2]["content"].([]interface{})
	if !ok || len(content) != 2 {
		t.Fatalf("Expected text and image parts, got %v", got.Messages[2]["content"])
	}
	img := content[1].(map[string]interface{})["image_url"].(map[string]interface{})
	if img["url"] != "data:image/png;base64,iVBORw==" {
		t.Errorf("Unexpected data URL: %v", img["url"])
	}
	if img["detail"] != "high" {
		t.Errorf("Expected detail high, got %v", img["detail"])
	}
}

func TestOpenAIAskWithoutHistoryOrImage(t *testing.T) {
	var messages []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []map[string]interface{} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		messages = body.Messages
		json.NewEncoder(w).Encode(chatReply("plain"))
	}))
	defer server.Close()

	p, _ := NewOpenAI(WithBaseURL(server.URL), WithAPIKey("k"))
	if _, err := p.Ask(context.Background(), &Query{Question: "q", SystemPrompt: "s"}); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if parts := messages[1]["content"].([]interface{}); len(parts) != 1 {
		t.Errorf("Expected text part only, got %d parts", len(parts))
	}
}

func TestOpenAINoAPIKey(t *testing.T) {
	_, err := NewOpenAI()
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Expected ErrNoAPIKey, got %v", err)
	}
}

func TestOpenAIRetriesServerErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error": {"message": "overloaded"}}`))
			return
		}
		json.NewEncoder(w).Encode(chatReply("third time"))
	}))
	defer server.Close()

	p, _ := NewOpenAI(WithBaseURL(server.URL), WithAPIKey("k"), WithRetry(2, time.Millisecond))
	ans, err := p.Ask(context.Background(), &Query{Question: "q"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if ans.Text != "third time" {
		t.Errorf("Unexpected text: %s", ans.Text)
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestOpenAIAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Invalid API key", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
	}))
	defer server.Close()

	p, _ := NewOpenAI(WithBaseURL(server.URL), WithAPIKey("bad"))
	_, err := p.Ask(context.Background(), &Query{Question: "q"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T: %v", err, err)
	}
	if !apiErr.IsUnauthorized() || apiErr.IsRetryable() {
		t.Errorf("Expected non-retryable 401, got %d", apiErr.StatusCode)
	}
	if apiErr.Code != "invalid_api_key" || apiErr.Message != "Invalid API key" {
		t.Errorf("Unexpected error detail: %+v", apiErr)
	}
}

func TestOpenAIEmptyReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatReply("  "))
	}))
	defer server.Close()

	p, _ := NewOpenAI(WithBaseURL(server.URL), WithAPIKey("k"))
	_, err := p.Ask(context.Background(), &Query{Question: "q"})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestOpenAIHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	p, _ := NewOpenAI(WithBaseURL(server.URL+"/"), WithAPIKey("k"))
	if err := p.Health(context.Background()); err != nil {
		t.Errorf("Health failed: %v", err)
	}
}
