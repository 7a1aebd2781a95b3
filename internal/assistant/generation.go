package assistant

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

	"github.com/liliang-cn/askstock/internal/config"
	"github.com/liliang-cn/askstock/internal/domain"
)

// Generation failure modes. The orchestrator treats any non-nil error as
// the signal to answer from the rule-based responder instead; these
// sentinels only classify the reason.
var (
	ErrNoAPIKey     = errors.New("no generation api key configured")
	ErrEmptyContent = errors.New("generation service returned no content")
)

// UpstreamError is a non-2xx response from the generation service.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("generation service error (%d): %s", e.StatusCode, e.Message)
}

// generationHistoryTail bounds how many prior turns travel upstream.
const generationHistoryTail = 4

// Client calls an OpenAI-compatible chat completions endpoint. One attempt
// per call, no retries; the HTTP client timeout bounds worst-case latency
// so a slow upstream degrades to the fallback instead of stalling the user.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	http        *http.Client
}

// NewClient creates a generation client from config.
func NewClient(cfg config.LLMConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		http:        &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends one completion request and returns the generated text.
// The message list is: the system prompt, the most recent history turns
// with their original roles, then the raw user message.
func (c *Client) Generate(ctx context.Context, systemPrompt string, history []domain.ConversationMessage, userMessage string) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", ErrNoAPIKey
	}

	messages := make([]chatMessage, 0, generationHistoryTail+2)
	messages = append(messages, chatMessage{Role: domain.RoleSystem, Content: systemPrompt})
	start := len(history) - generationHistoryTail
	if start < 0 {
		start = 0
	}
	for _, msg := range history[start:] {
		messages = append(messages, chatMessage{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, chatMessage{Role: domain.RoleUser, Content: userMessage})

	payload, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", &UpstreamError{
			StatusCode: res.StatusCode,
			Message:    extractUpstreamError(body),
		}
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyContent
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}

// extractUpstreamError pulls error.message out of an error body, falling
// back to the raw body.
func extractUpstreamError(body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// FailureReason maps a generation error to a short metric label.
func FailureReason(err error) string {
	var upstream *UpstreamError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoAPIKey):
		return "no_api_key"
	case errors.Is(err, ErrEmptyContent):
		return "empty_content"
	case errors.As(err, &upstream):
		return "upstream_error"
	default:
		return "transport"
	}
}
