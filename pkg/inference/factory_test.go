package inference

import (
	"errors"
	"testing"

	"github.com/teslashibe/go-deskpilot/internal/config"
)

func enabled(b bool) *bool { return &b }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Models.Providers = map[string]config.ProviderConfig{
		"gemini": {Enabled: enabled(true), Model: "gemini-1.5-flash", APIKey: "g-key"},
		"openai": {Enabled: enabled(true), Model: "gpt-4o", APIKey: "o-key"},
	}
	return cfg
}

func TestNewFromConfigDefault(t *testing.T) {
	p, err := NewFromConfig(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	if p.Name() != "gemini" {
		t.Errorf("Expected gemini, got %s", p.Name())
	}
}

func TestNewFromConfigDisabledDefault(t *testing.T) {
	cfg := testConfig()
	cfg.Models.Providers["gemini"] = config.ProviderConfig{Enabled: enabled(false)}

	p, err := NewFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("Expected openai, got %s", p.Name())
	}
}

func TestNewFromConfigUnsupported(t *testing.T) {
	cfg := testConfig()
	cfg.Models.Default = "claude"
	cfg.Models.Providers["claude"] = config.ProviderConfig{Enabled: enabled(true)}

	_, err := NewFromConfig(cfg, nil)
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("Expected ErrUnsupportedProvider, got %v", err)
	}
	if err.Error() != "inference: unsupported model provider: claude" {
		t.Errorf("Unexpected message: %v", err)
	}
}

func TestNewFromConfigNoneEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.Models.Providers = map[string]config.ProviderConfig{"gemini": {Enabled: enabled(false)}}

	if _, err := NewFromConfig(cfg, nil); !errors.Is(err, ErrNoEnabledProvider) {
		t.Errorf("Expected ErrNoEnabledProvider, got %v", err)
	}
}

func TestNewFromConfigFallbackChain(t *testing.T) {
	cfg := testConfig()
	cfg.Models.Default = "openai"
	cfg.Models.Fallback = true

	p, err := NewFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	chain, ok := p.(*Chain)
	if !ok {
		t.Fatalf("Expected *Chain, got %T", p)
	}
	if chain.Name() != "openai>gemini" {
		t.Errorf("Unexpected chain order: %s", chain.Name())
	}
}

func TestNewFromConfigDefaultWithoutEnabledKey(t *testing.T) {
	cfg := config.Default()
	cfg.Models.Default = "openai"
	cfg.Models.Providers = map[string]config.ProviderConfig{
		"openai": {Model: "gpt-4o-mini", APIKey: "o-key"},
	}

	p, err := NewFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("Expected openai, got %s", p.Name())
	}
}

func TestNewFromConfigDefaultFromYAML(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "o-key")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	for _, doc := range []string{
		"models:\n  default: openai\n",
		"models:\n  default: openai\n  fallback: true\n  providers:\n    openai:\n      model: gpt-4o-mini\n",
	} {
		cfg, err := config.Parse([]byte(doc))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		p, err := NewFromConfig(cfg, nil)
		if err != nil {
			t.Fatalf("NewFromConfig(%q) failed: %v", doc, err)
		}
		if p.Name() != "openai" {
			t.Errorf("NewFromConfig(%q) = %s, want openai", doc, p.Name())
		}
	}
}

func TestNewFromConfigMissingKey(t *testing.T) {
	cfg := testConfig()
	cfg.Models.Default = "openai"
	cfg.Models.Providers["openai"] = config.ProviderConfig{Enabled: enabled(true), Model: "gpt-4o"}

	if _, err := NewFromConfig(cfg, nil); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Expected ErrNoAPIKey, got %v", err)
	}
}
