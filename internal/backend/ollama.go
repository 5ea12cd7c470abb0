package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaBackend generates completions from a local Ollama server.
type OllamaBackend struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates a backend for a local Ollama server.
func NewOllama(baseURL, model string) *OllamaBackend {
	return &OllamaBackend{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}
}

// Name identifies the backend.
func (b *OllamaBackend) Name() string { return "ollama" }

// Reachable reports whether the server answers within the given timeout.
func (b *OllamaBackend) Reachable(ctx context.Context, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Generate calls the non-streaming generate endpoint.
func (b *OllamaBackend) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(ollamaRequest{Model: b.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("ollama marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ollama build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama generate: status %d: %s", resp.StatusCode, body)
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama decode response: %w", err)
	}
	return out.Response, nil
}
