// Package aiclient implements the HTTP collaborators for the embedding and
// generation backends (A5): an OpenAI-compatible embeddings endpoint and an
// OpenAI-compatible chat/completions endpoint, generalized down to the
// retrieval core's model.Embedder/model.Generator contracts and stripped
// of out-of-scope OCR and transcription concerns.
package aiclient

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

	"ragcore/internal/model"
)

const (
	defaultBatchSize      = 32
	defaultRequestTimeout = 30 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
)

// ProviderError is the transport-level error shape returned by Client
// before it is wrapped into a model.Error at the caller boundary.
type ProviderError struct {
	Code       string
	Message    string
	Retryable  bool
	StatusCode int
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// ChatParams controls the sampling behavior of Generate
// (chat_temperature, chat_top_p, chat_max_tokens).
type ChatParams struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Client talks to an OpenAI-compatible embeddings/chat-completions API.
// It implements model.Embedder and model.Generator.
type Client struct {
	BaseURL        string
	APIKey         string
	HTTPClient     *http.Client
	EmbedModel     string
	ChatModel      string
	ChatParams     ChatParams
	BatchSize      int
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// NewClient constructs a client with safe default retry/timeout settings.
func NewClient(baseURL, apiKey, embedModel, chatModel string) *Client {
	return &Client{
		BaseURL:        strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		APIKey:         strings.TrimSpace(apiKey),
		HTTPClient:     &http.Client{Timeout: defaultRequestTimeout},
		EmbedModel:     embedModel,
		ChatModel:      chatModel,
		ChatParams:     ChatParams{Temperature: 0.0, TopP: 1.0, MaxTokens: 512},
		BatchSize:      defaultBatchSize,
		MaxRetries:     defaultMaxRetries,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedDataItem struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

type embedResponse struct {
	Data []embedDataItem `json:"data"`
}

// EmbedBatch implements model.Embedder.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.embedBatchWithRetry(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// EmbedQuery implements model.Embedder.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Client) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	maxRetries := c.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		vectors, err := c.embedBatch(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		var providerErr *ProviderError
		if !errors.As(err, &providerErr) || !providerErr.Retryable || attempt == maxRetries {
			return nil, err
		}
		if waitErr := c.wait(ctx, c.backoffForAttempt(attempt)); waitErr != nil {
			return nil, waitErr
		}
	}
	return nil, lastErr
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, &ProviderError{Code: "EMBED_AUTH", Message: "missing API key", Retryable: false}
	}

	body, err := json.Marshal(embedRequest{Model: c.EmbedModel, Input: texts})
	if err != nil {
		return nil, &ProviderError{Code: "EMBED_FAILED", Message: "failed to marshal embed request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Code: "EMBED_FAILED", Message: "failed to build embed request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &ProviderError{Code: "EMBED_FAILED", Message: "embed request failed", Retryable: true, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, httpStatusError(resp, "embed")
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &ProviderError{Code: "EMBED_FAILED", Message: "failed to decode embed response", Cause: err}
	}
	if len(parsed.Data) != len(texts) {
		return nil, &ProviderError{Code: "EMBED_FAILED",
			Message: fmt.Sprintf("embed response size mismatch: got %d vectors for %d inputs", len(parsed.Data), len(texts))}
	}

	vectors := make([][]float32, len(texts))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, &ProviderError{Code: "EMBED_FAILED", Message: "embed response contains invalid index"}
		}
		vector := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vector[i] = float32(v)
		}
		vectors[item.Index] = vector
	}
	return vectors, nil
}

type generateRequest struct {
	Model       string            `json:"model"`
	Messages    []generateMessage `json:"messages"`
	Temperature float64           `json:"temperature"`
	TopP        float64           `json:"top_p"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
}

type generateMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generateResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate implements model.Generator.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generateWithRetry(ctx, prompt)
}

func (c *Client) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	maxAttempts := c.MaxRetries + 1
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := c.generateOnce(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err

		var providerErr *ProviderError
		if !errors.As(err, &providerErr) || !providerErr.Retryable || attempt == maxAttempts-1 {
			return "", err
		}
		if waitErr := c.wait(ctx, c.backoffForAttempt(attempt)); waitErr != nil {
			return "", waitErr
		}
	}
	return "", lastErr
}

func (c *Client) generateOnce(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return "", &ProviderError{Code: "GENERATE_AUTH", Message: "missing API key", Retryable: false}
	}

	payload := generateRequest{
		Model:       c.ChatModel,
		Messages:    []generateMessage{{Role: "user", Content: prompt}},
		Temperature: c.ChatParams.Temperature,
		TopP:        c.ChatParams.TopP,
		MaxTokens:   c.ChatParams.MaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &ProviderError{Code: "GENERATE_FAILED", Message: "failed to marshal chat request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Code: "GENERATE_FAILED", Message: "failed to build chat request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", &ProviderError{Code: "GENERATE_FAILED", Message: "chat request failed", Retryable: true, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", httpStatusError(resp, "chat")
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &ProviderError{Code: "GENERATE_FAILED", Message: "failed to decode chat response", Cause: err}
	}
	if len(parsed.Choices) == 0 {
		return "", &ProviderError{Code: "GENERATE_FAILED", Message: "chat response had no choices"}
	}
	return parsed.Choices[0].Message.Content, nil
}

func httpStatusError(resp *http.Response, op string) *ProviderError {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	errMsg := strings.TrimSpace(string(bodyBytes))
	if errMsg == "" {
		errMsg = "upstream returned non-200 response"
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &ProviderError{Code: strings.ToUpper(op) + "_AUTH", Message: errMsg, Retryable: false, StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &ProviderError{Code: strings.ToUpper(op) + "_RATE_LIMIT", Message: errMsg, Retryable: true, StatusCode: resp.StatusCode}
	case resp.StatusCode >= http.StatusInternalServerError:
		return &ProviderError{Code: strings.ToUpper(op) + "_FAILED", Message: errMsg, Retryable: true, StatusCode: resp.StatusCode}
	default:
		return &ProviderError{Code: strings.ToUpper(op) + "_FAILED", Message: errMsg, Retryable: false, StatusCode: resp.StatusCode}
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultRequestTimeout}
}

func (c *Client) backoffForAttempt(attempt int) time.Duration {
	initial := c.InitialBackoff
	if initial <= 0 {
		initial = defaultInitialBackoff
	}
	maxBackoff := c.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	backoff := initial
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ model.Embedder = (*Client)(nil)
var _ model.Generator = (*Client)(nil)
