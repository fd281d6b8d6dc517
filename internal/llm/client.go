package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hyperjump/resumechat/internal/config"
	"go.uber.org/zap"
)

// Client is an OpenAI-compatible chat-completions client (Groq by default).
type Client struct {
	provider    string
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	topP        float64
	httpClient  *http.Client
	limiter     *RateLimiter
	logger      *zap.Logger // optional
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets a logger for request events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient builds a client from cfg. The API key is read from the environment
// variable named by cfg.APIKeyEnv; ErrMissingAPIKey is returned when it is empty.
func NewClient(cfg *config.LLMConfig, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(os.Getenv(cfg.APIKeyEnv))
	if key == "" {
		return nil, fmt.Errorf("%w: set %s", ErrMissingAPIKey, cfg.APIKeyEnv)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "llm"
	}
	c := &Client{
		provider:    provider,
		endpoint:    strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:      key,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		topP:        cfg.TopP,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     NewRateLimiter(cfg.RequestsPerMinute),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Provider returns the configured provider name, e.g. "groq".
func (c *Client) Provider() string { return c.provider }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	TopP        float64   `json:"top_p"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends prompt as a single user message and returns the trimmed reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%s rate limit wait: %w", c.provider, err)
	}
	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		TopP:        c.topP,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s API request failed: %w", c.provider, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%s API read response: %w", c.provider, err)
	}
	if c.logger != nil {
		c.logger.Debug("completion response",
			zap.String("provider", c.provider),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)))
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			c.limiter.Backoff(parseRetryAfter(resp.Header.Get("Retry-After")))
		}
		return "", c.apiError(resp.StatusCode, payload)
	}

	var out completionResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("unexpected response format from %s API: %w", c.provider, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("unexpected response format from %s API: %w", c.provider, errors.New("no choices"))
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func (c *Client) apiError(status int, payload []byte) error {
	var e errorResponse
	msg := ""
	if json.Unmarshal(payload, &e) == nil {
		msg = e.Error.Message
	}
	if msg == "" {
		msg = strings.TrimSpace(string(payload))
		if len(msg) > 200 {
			msg = msg[:200]
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Provider: c.displayName(), StatusCode: status, Message: msg}
}

func (c *Client) displayName() string {
	if c.provider == "" {
		return "LLM"
	}
	return strings.ToUpper(c.provider[:1]) + c.provider[1:]
}
