package infra

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ── Evolution API client ──────────────────────────────────────────────────────
// Thin HTTP client for the WhatsApp relay. One POST per message, no retries;
// callers decide what a failure means.

// UpstreamError is a non-2xx answer from an upstream HTTP service.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Body)
}

// MediaMessage is a document sent through sendMedia.
type MediaMessage struct {
	Number   string
	Caption  string
	FileName string
	MimeType string
	Data     []byte
}

type sendTextBody struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type sendMediaBody struct {
	Number    string `json:"number"`
	MediaType string `json:"mediatype"`
	MimeType  string `json:"mimetype"`
	Caption   string `json:"caption"`
	FileName  string `json:"fileName"`
	Media     string `json:"media"`
}

type connectionStateBody struct {
	State    string `json:"state"`
	Instance struct {
		State string `json:"state"`
	} `json:"instance"`
}

// EvolutionClient talks to one Evolution API instance.
type EvolutionClient struct {
	baseURL    string
	apiKey     string
	instance   string
	httpClient *http.Client
}

func NewEvolutionClient(baseURL, apiKey, instance string, timeout time.Duration) *EvolutionClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &EvolutionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		instance:   instance,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SendText posts a plain text message to an already normalized number.
func (c *EvolutionClient) SendText(ctx context.Context, number, text string) error {
	return c.post(ctx, "/message/sendText/", sendTextBody{Number: number, Text: text})
}

// SendMedia posts a base64 document.
func (c *EvolutionClient) SendMedia(ctx context.Context, m MediaMessage) error {
	mime := m.MimeType
	if mime == "" {
		mime = "application/pdf"
	}
	return c.post(ctx, "/message/sendMedia/", sendMediaBody{
		Number:    m.Number,
		MediaType: "document",
		MimeType:  mime,
		Caption:   m.Caption,
		FileName:  m.FileName,
		Media:     base64.StdEncoding.EncodeToString(m.Data),
	})
}

// ConnectionState returns the instance state ("open" when WhatsApp is linked).
func (c *EvolutionClient) ConnectionState(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/instance/connectionState/"+c.instance, nil)
	if err != nil {
		return "", fmt.Errorf("evolution: create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("evolution: relay unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", upstreamError(resp)
	}

	var body connectionStateBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("evolution: decode connection state: %w", err)
	}
	// v1 answers {"state": ...}; v2 nests it under "instance".
	if body.State != "" {
		return body.State, nil
	}
	return body.Instance.State, nil
}

func (c *EvolutionClient) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("evolution: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path+c.instance, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("evolution: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("evolution: relay unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return upstreamError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func upstreamError(resp *http.Response) *UpstreamError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
}
