package backends_test

import (
	"errors"
	"testing"

	"github.com/nmarkham/citetype/internal/backends"
)

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := backends.Config{Kind: "ollama", Model: "llama3.1:8b"}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.BaseURL != "http://localhost:11434" {
		t.Errorf("BaseURL = %q, want http://localhost:11434", cfg.BaseURL)
	}
	if cfg.Temperature != 0.1 {
		t.Errorf("Temperature = %v, want 0.1", cfg.Temperature)
	}
	if cfg.Timeout != "120s" {
		t.Errorf("Timeout = %q, want 120s", cfg.Timeout)
	}
	if cfg.Name != "ollama" {
		t.Errorf("Name = %q, want ollama", cfg.Name)
	}
}

func TestConfigFinalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  backends.Config
	}{
		{"unknown kind", backends.Config{Kind: "anthropic", Model: "m"}},
		{"gateway without base url", backends.Config{Kind: "gateway", Model: "m"}},
		{"missing model", backends.Config{Kind: "ollama"}},
		{"bad timeout", backends.Config{Kind: "ollama", Model: "m", Timeout: "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(); err == nil {
				t.Error("Finalize succeeded, want error")
			}
		})
	}
}

func TestConfigToken(t *testing.T) {
	cfg := backends.Config{TokenEnv: "CITETYPE_TEST_TOKEN"}
	t.Setenv("CITETYPE_TEST_TOKEN", "secret")
	if got := cfg.Token(); got != "secret" {
		t.Errorf("Token() = %q, want secret", got)
	}

	unset := backends.Config{}
	if got := unset.Token(); got != "" {
		t.Errorf("Token() = %q, want empty", got)
	}
}

func TestNewUnknownKind(t *testing.T) {
	_, err := backends.New(backends.Config{Kind: "grpc", Model: "m"})
	if !errors.Is(err, backends.ErrUnknownKind) {
		t.Errorf("error = %v, want ErrUnknownKind", err)
	}
}

func TestNewConstructsTransports(t *testing.T) {
	ollama, err := backends.New(backends.Config{Name: "local", Kind: "ollama", Model: "llama3.1:8b"})
	if err != nil {
		t.Fatalf("new ollama failed: %v", err)
	}
	if ollama.Name() != "local" || ollama.Model() != "llama3.1:8b" {
		t.Errorf("ollama = %s/%s, want local/llama3.1:8b", ollama.Name(), ollama.Model())
	}

	gateway, err := backends.New(backends.Config{
		Kind:    "gateway",
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "qwen/qwen-2.5-72b-instruct",
	})
	if err != nil {
		t.Fatalf("new gateway failed: %v", err)
	}
	if gateway.Name() != "gateway" {
		t.Errorf("gateway.Name() = %q, want gateway", gateway.Name())
	}
}
