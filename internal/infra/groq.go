package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrLLMDisabled is returned when no API key is configured.
var ErrLLMDisabled = errors.New("groq: api key not configured")

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GroqClient calls an OpenAI-compatible chat completions endpoint through a
// circuit breaker.
type GroqClient struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewGroqClient(url, apiKey, model string, cb *CircuitBreaker) *GroqClient {
	if cb == nil {
		cb = NewCircuitBreaker(DefaultCBConfig())
	}
	return &GroqClient{
		url:        url,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		cb:         cb,
	}
}

// Breaker exposes the breaker state for the health endpoint.
func (c *GroqClient) Breaker() *CircuitBreaker { return c.cb }

// Ask sends one system + user exchange and returns the first choice.
func (c *GroqClient) Ask(ctx context.Context, system, question string) (string, error) {
	if c.apiKey == "" {
		return "", ErrLLMDisabled
	}
	var answer string
	err := c.cb.Execute(func() error {
		var err error
		answer, err = c.complete(ctx, system, question)
		return err
	})
	return answer, err
}

func (c *GroqClient) complete(ctx context.Context, system, question string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: question},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("groq: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("groq: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq: endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", upstreamError(resp)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("groq: decode response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", errors.New("groq: empty answer")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
