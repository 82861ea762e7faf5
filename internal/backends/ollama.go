package backends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Ollama talks to a local Ollama server's native /api/chat endpoint.
// No auth; non-streaming with a low fixed temperature for stable labels.
type Ollama struct {
	name        string
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
}

func newOllama(cfg Config) *Ollama {
	return &Ollama{
		name:        cfg.Name,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: cfg.TimeoutDuration()},
	}
}

func (o *Ollama) Name() string {
	return o.name
}

func (o *Ollama) Model() string {
	return o.model
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Classify sends the pair's evidence to Ollama and parses the reply into a
// verdict. Transport and server failures return a wrapped ErrUnavailable.
func (o *Ollama) Classify(ctx context.Context, req Request) (*Verdict, error) {
	body, err := json.Marshal(ollamaRequest{
		Model: o.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: SystemPrompt()},
			{Role: "user", Content: UserPrompt(req)},
		},
		Stream:  false,
		Options: ollamaOptions{Temperature: o.temperature},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, truncate(raw, 200))
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope: %v", ErrUnavailable, err)
	}

	verdict := ParseVerdict(parsed.Message.Content)
	return &verdict, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
