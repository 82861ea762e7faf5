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

// Gateway talks to any OpenAI-compatible /chat/completions endpoint.
// OpenAI, OpenRouter, and institutional gateways differ only in base URL,
// bearer token, and any extra headers.
type Gateway struct {
	name        string
	baseURL     string
	model       string
	token       string
	headers     map[string]string
	temperature float64
	client      *http.Client
}

func newGateway(cfg Config) *Gateway {
	return &Gateway{
		name:        cfg.Name,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		token:       cfg.Token(),
		headers:     cfg.Headers,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: cfg.TimeoutDuration()},
	}
}

func (g *Gateway) Name() string {
	return g.name
}

func (g *Gateway) Model() string {
	return g.model
}

type gatewayMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type gatewayRequest struct {
	Model       string           `json:"model"`
	Messages    []gatewayMessage `json:"messages"`
	Temperature float64          `json:"temperature"`
}

type gatewayResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify sends the pair's evidence to the gateway and parses the reply
// into a verdict. Connect, auth, and 5xx failures return a wrapped
// ErrUnavailable.
func (g *Gateway) Classify(ctx context.Context, req Request) (*Verdict, error) {
	body, err := json.Marshal(gatewayRequest{
		Model: g.model,
		Messages: []gatewayMessage{
			{Role: "system", Content: SystemPrompt()},
			{Role: "user", Content: UserPrompt(req)},
		},
		Temperature: g.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := g.baseURL
	if !strings.HasSuffix(endpoint, "/chat/completions") {
		endpoint += "/chat/completions"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.token)
	}
	for k, v := range g.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: auth rejected (status %d)", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, truncate(raw, 200))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, truncate(raw, 200))
	}

	var parsed gatewayResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope: %v", ErrUnavailable, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrUnavailable)
	}

	verdict := ParseVerdict(parsed.Choices[0].Message.Content)
	return &verdict, nil
}
