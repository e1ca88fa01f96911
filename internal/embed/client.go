package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrBadShape means the embedding service answered with none of the
	// recognized response shapes.
	ErrBadShape = errors.New("unrecognized embedding response shape")
	// ErrDimension means a returned vector does not match the configured
	// embedding dimension.
	ErrDimension = errors.New("embedding dimension mismatch")
)

// Client talks to an OpenAI-compatible /embeddings endpoint over plain HTTP.
// Keeping the wire level visible is what lets us accept the different
// response shapes local runtimes produce (see shape.go).
type Client struct {
	baseURL string
	apiKey  string
	model   string
	dim     int
	httpc   *http.Client
}

// ClientConfig configures the embedding client. Dimension > 0 enables a
// strict length check on every returned vector.
type ClientConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
	Timeout   time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:1234/v1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		dim:     cfg.Dimension,
		httpc:   &http.Client{Timeout: cfg.Timeout},
	}
}

// Embed requests vectors for texts in a single upstream call. Vectors come
// back in input order. Transport failures and non-2xx statuses are returned
// as plain (retryable) errors; a malformed body is permanent.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, _ := json.Marshal(map[string]any{
		"model": c.model,
		"input": texts,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embeddings request: %s", resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embeddings response: %w", err)
	}

	sh, err := decodeShape(payload)
	if err != nil {
		return nil, err
	}
	vecs, err := sh.vectors(len(texts))
	if err != nil {
		return nil, err
	}
	if c.dim > 0 {
		for i, v := range vecs {
			if len(v) != c.dim {
				return nil, fmt.Errorf("%w: vector %d has %d dims, want %d", ErrDimension, i, len(v), c.dim)
			}
		}
	}
	return vecs, nil
}
