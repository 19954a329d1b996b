// Package embedding implements EmbeddingClient: batched text-to-vector
// embedding against an OpenAI-compatible /embeddings endpoint. Configuration
// is an immutable value passed at construction time, matching the rest of
// the core's avoidance of process-wide mutable client state.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseSize limits the embedding response body to prevent memory
// exhaustion from a misbehaving backend.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// maxChunkLength truncates any text exceeding the backend's safety margin
// before it's sent. Hardcoded per the source's convention; a production
// implementation could query the backend for its real limit at startup.
const maxChunkLength = 4000

// Config is the immutable endpoint configuration for an embedding backend.
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	Dim     int
	Timeout time.Duration
}

// Client embeds batches of text against an OpenAI-compatible endpoint.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient builds a Client bound to cfg.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

// Dim returns the configured embedding dimension.
func (c *Client) Dim() int {
	return c.cfg.Dim
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed embeds a batch of texts in a single request and returns one
// vector per input, in input order. A missing entry in the backend's
// response (e.g. a filtered input) leaves the corresponding slot nil.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	trimmed := make([]string, len(texts))
	for i, t := range texts {
		if len(t) > maxChunkLength {
			t = t[:maxChunkLength]
		}
		trimmed[i] = t
	}

	body, err := json.Marshal(embedRequest{Model: c.cfg.Model, Input: trimmed})
	if err != nil {
		return nil, fmt.Errorf("encoding embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decoding embedding response: %w", err)
	}

	vectors := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index >= 0 && d.Index < len(vectors) {
			vectors[d.Index] = d.Embedding
		}
	}
	return vectors, nil
}

// EmbedOne embeds a single string and returns its vector. Used by
// HybridSearch to embed the query side of a search.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embedding backend returned no vector")
	}
	return vectors[0], nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
