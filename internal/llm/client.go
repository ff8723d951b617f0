// Package llm is a minimal client for an OpenAI-compatible chat-completions
// endpoint (Groq in production).
package llm

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

	"github.com/r1cksync/skycast/internal/models"
)

var (
	ErrMissingAPIKey = errors.New("completion API key is required")
	ErrNoChoices     = errors.New("completion returned no choices")
)

// CompletionRequest is one non-streaming completion call.
type CompletionRequest struct {
	Messages    []models.ConversationTurn
	Temperature float64
	MaxTokens   int
}

// Completer is implemented by *Client and by capturing stubs in tests.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Client calls the chat-completions endpoint with a fixed model.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// New creates a Client. baseURL is the API root (e.g.
// "https://api.groq.com/openai/v1"); the /chat/completions path is appended.
func New(apiKey, baseURL, model string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type completionPayload struct {
	Model       string                    `json:"model"`
	Messages    []models.ConversationTurn `json:"messages"`
	Temperature float64                   `json:"temperature"`
	MaxTokens   int                       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete issues one completion call and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	payload := completionPayload{
		Model:       c.model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("completion API: HTTP %d", resp.StatusCode)
		}
		return "", fmt.Errorf("parse completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := ""
		if parsed.Error != nil {
			msg = ": " + parsed.Error.Message
		}
		return "", fmt.Errorf("completion API: HTTP %d%s", resp.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrNoChoices
	}
	return parsed.Choices[0].Message.Content, nil
}
