// Package inference talks to a completions-style HTTP inference server
// (vLLM or any OpenAI-compatible endpoint) and recovers structured field
// sets from free-form model output.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// Config holds endpoint settings for the client.
type Config struct {
	// ServerURL is the endpoint base, e.g. "http://localhost:8000".
	ServerURL string
	// Model is the model identifier sent with every completion request.
	Model string
	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration
	// MaxRetries is the total number of attempts for transient failures.
	MaxRetries int
	// MaxTokens caps the completion length.
	MaxTokens int
	// Temperature controls sampling. Kept low for extraction work.
	Temperature float32
	// InitialBackoff and MaxBackoff bound the retry wait between attempts.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client is a remote inference client. Safe for concurrent use.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient builds a client, filling unset config fields with workable defaults.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = "Qwen/Qwen3-0.6B"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 3
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.1
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 2 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// GenerateOptions tunes a single Generate call. Zero values fall back
// to the client config.
type GenerateOptions struct {
	SystemPrompt string
	Temperature  *float32
	MaxTokens    int
}

// Response is one completed generation.
type Response struct {
	Text         string
	Confidence   float32
	Model        string
	FinishReason string
	Usage        Usage
}

// Usage reports token accounting from the endpoint.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type completionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float32  `json:"temperature"`
	TopP        float32  `json:"top_p"`
	Stop        []string `json:"stop"`
}

type completionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Generate sends one completion request, retrying transient failures with
// exponential backoff. Non-2xx application errors (4xx) are not retried.
func (c *Client) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Response, error) {
	if c.cfg.ServerURL == "" {
		return nil, fmt.Errorf("inference server URL not configured")
	}

	system := opts.SystemPrompt
	if system == "" {
		system = BuildSystemPrompt()
	}
	temp := c.cfg.Temperature
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}
	maxTokens := c.cfg.MaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	body := completionRequest{
		Model:       c.cfg.Model,
		Prompt:      renderCompletion(system, prompt),
		MaxTokens:   maxTokens,
		Temperature: temp,
		TopP:        0.95,
		Stop:        []string{"User:", "\n\n\n"},
	}

	reqID := uuid.New().String()
	start := time.Now()
	c.logger.Info("inference.generate.start",
		"req_id", reqID,
		"model", c.cfg.Model,
		"prompt_len", len(body.Prompt),
	)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialBackoff
	bo.MaxInterval = c.cfg.MaxBackoff

	attempt := 0
	resp, err := backoff.RetryWithData(func() (*Response, error) {
		attempt++
		r, err := c.complete(ctx, reqID, body)
		if err != nil {
			if IsTransient(err) {
				c.logger.Warn("inference.generate.retry",
					"req_id", reqID,
					"attempt", attempt,
					"error", err,
				)
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return r, nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.cfg.MaxRetries-1)), ctx))
	if err != nil {
		c.logger.Error("inference.generate.error",
			"req_id", reqID,
			"attempts", attempt,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	c.logger.Info("inference.generate.done",
		"req_id", reqID,
		"attempts", attempt,
		"finish_reason", resp.FinishReason,
		"confidence", resp.Confidence,
		"total_tokens", resp.Usage.TotalTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

// complete performs one HTTP round trip and maps failures into the
// transient/permanent taxonomy.
func (c *Client) complete(ctx context.Context, reqID string, body completionRequest) (*Response, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ServerURL+"/v1/completions", bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(req)
	if err != nil {
		// Connection failures and client timeouts are retryable. A canceled
		// context is not; surface it so the retry loop stops.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientError{Err: err}
	}
	defer func() {
		if cerr := httpResp.Body.Close(); cerr != nil {
			c.logger.Warn("inference.http.body_close_error", "req_id", reqID, "error", cerr)
		}
	}()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransientError{Err: fmt.Errorf("read response: %w", err)}
	}

	if httpResp.StatusCode/100 != 2 {
		reqErr := &RequestError{StatusCode: httpResp.StatusCode, Body: truncateBody(raw)}
		if httpResp.StatusCode >= 500 {
			return nil, &TransientError{Err: reqErr}
		}
		return nil, reqErr
	}

	var cr completionResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, ErrNoChoices
	}

	choice := cr.Choices[0]
	conf := float32(0.7)
	if choice.FinishReason == "stop" {
		conf = 0.9
	}
	return &Response{
		Text:         strings.TrimSpace(choice.Text),
		Confidence:   conf,
		Model:        cr.Model,
		FinishReason: choice.FinishReason,
		Usage:        cr.Usage,
	}, nil
}

// CheckHealth probes the endpoint's health route with a short deadline.
func (c *Client) CheckHealth(ctx context.Context) bool {
	if c.cfg.ServerURL == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ServerURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("inference.health.unreachable", "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// ListModels asks the endpoint which models it serves.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if c.cfg.ServerURL == "" {
		return nil, fmt.Errorf("inference server URL not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ServerURL+"/v1/models", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{StatusCode: resp.StatusCode, Body: truncateBody(raw)}
	}

	var listing struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	ids := make([]string, 0, len(listing.Data))
	for _, m := range listing.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.cfg.Model
}

func truncateBody(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
