package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RemoteConfig configures an OpenAI-compatible /embeddings client.
type RemoteConfig struct {
	BaseURL    string
	APIKeyEnv  string
	Model      string
	Dimensions int
	Timeout    time.Duration
	MaxRetries int
}

// RemoteEmbedder calls an OpenAI-compatible embeddings endpoint. Requests that fail
// with 429 or 5xx are retried with exponential backoff, honouring Retry-After.
type RemoteEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	client     *http.Client
	maxRetries int
	logger     *zap.Logger
}

// RemoteOption configures a RemoteEmbedder.
type RemoteOption func(*RemoteEmbedder)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(e *RemoteEmbedder) { e.client = c }
}

// WithRemoteLogger sets a logger for retry events.
func WithRemoteLogger(l *zap.Logger) RemoteOption {
	return func(e *RemoteEmbedder) { e.logger = l }
}

// NewRemoteEmbedder creates a client. The API key is read from cfg.APIKeyEnv and
// may be empty for local servers that do not check it.
func NewRemoteEmbedder(cfg RemoteConfig, opts ...RemoteOption) (*RemoteEmbedder, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("remote embedder: base URL is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("remote embedder: dimensions must be positive, got %d", cfg.Dimensions)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	e := &RemoteEmbedder{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
	}
	if cfg.APIKeyEnv != "" {
		e.apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Name returns "remote:" followed by the model name.
func (e *RemoteEmbedder) Name() string { return "remote:" + e.model }

// Dimensions returns the configured embedding dimension.
func (e *RemoteEmbedder) Dimensions() int { return e.dimensions }

// Close is a no-op.
func (e *RemoteEmbedder) Close() error { return nil }

// Embed embeds a single text.
func (e *RemoteEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model,omitempty"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// EmbedBatch embeds texts in one request. Results are placed by the response's
// index field so out-of-order data entries are handled.
func (e *RemoteEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	body, err := json.Marshal(embeddingsRequest{Input: texts, Model: e.model})
	if err != nil {
		return nil, &EmbedError{Provider: e.Name(), Err: err}
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 && e.logger != nil {
			e.logger.Debug("retrying embeddings request", zap.Int("attempt", attempt), zap.Error(lastErr))
		}
		payload, retryAfter, err := e.post(ctx, body)
		if err == nil {
			return e.decode(payload, len(texts))
		}
		lastErr = err
		var re *retryableError
		if !errors.As(err, &re) || attempt == e.maxRetries {
			break
		}
		wait := retryDelay(attempt)
		if retryAfter > 0 {
			wait = retryAfter
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, &EmbedError{Provider: e.Name(), Err: lastErr}
}

type retryableError struct{ err error }

func (r *retryableError) Error() string { return r.err.Error() }
func (r *retryableError) Unwrap() error { return r.err }

func (e *RemoteEmbedder) post(ctx context.Context, body []byte) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, &retryableError{err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &retryableError{err: err}
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		var wait time.Duration
		if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && secs > 0 {
			wait = time.Duration(secs) * time.Second
		}
		return nil, wait, &retryableError{err: requestFailed(resp.Status, payload)}
	}
	if resp.StatusCode >= 300 {
		return nil, 0, requestFailed(resp.Status, payload)
	}
	return payload, 0, nil
}

// requestFailed describes a non-2xx reply, preferring the provider's
// error.message over the raw body.
func requestFailed(status string, payload []byte) error {
	var body embeddingsResponse
	msg := ""
	if json.Unmarshal(payload, &body) == nil && body.Error != nil {
		msg = body.Error.Message
	}
	if msg == "" {
		msg = strings.TrimSpace(string(payload))
		if len(msg) > 200 {
			msg = msg[:200]
		}
	}
	if msg == "" {
		return fmt.Errorf("embeddings request failed: %s", status)
	}
	return fmt.Errorf("embeddings request failed: %s: %s", status, msg)
}

func (e *RemoteEmbedder) decode(payload []byte, n int) ([][]float32, error) {
	var out embeddingsResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, &EmbedError{Provider: e.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.Error != nil && out.Error.Message != "" {
		return nil, &EmbedError{Provider: e.Name(), Err: errors.New(out.Error.Message)}
	}
	if len(out.Data) != n {
		return nil, &EmbedError{Provider: e.Name(), Err: fmt.Errorf("got %d embeddings for %d inputs", len(out.Data), n)}
	}
	result := make([][]float32, n)
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= n {
			return nil, &EmbedError{Provider: e.Name(), Err: fmt.Errorf("embedding index %d out of range", d.Index)}
		}
		if len(d.Embedding) != e.dimensions {
			return nil, &EmbedError{Provider: e.Name(), Err: fmt.Errorf("embedding has %d dimensions, want %d", len(d.Embedding), e.dimensions)}
		}
		result[d.Index] = d.Embedding
	}
	for i, v := range result {
		if v == nil {
			return nil, &EmbedError{Provider: e.Name(), Err: fmt.Errorf("missing embedding for input %d", i)}
		}
	}
	return result, nil
}

// retryDelay is exponential backoff from 200ms, capped at 5s.
func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 5 {
		return 5 * time.Second
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
