package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ChatMessage is one message in a completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is the completion-service contract the summary pipeline
// consumes: a prompt plus prior conversation in, generated text out.
type Completer interface {
	Complete(ctx context.Context, prompt string, prior []ChatMessage) (string, error)
}

// CompletionClient calls an OpenAI-compatible /chat/completions endpoint.
type CompletionClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewCompletionClient creates a completion client for the given provider.
func NewCompletionClient(baseURL, apiKey, model string) *CompletionClient {
	return &CompletionClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Complete performs a synchronous, non-streaming chat completion.
func (c *CompletionClient) Complete(ctx context.Context, prompt string, prior []ChatMessage) (string, error) {
	messages := make([]ChatMessage, 0, len(prior)+1)
	messages = append(messages, prior...)
	messages = append(messages, ChatMessage{Role: "user", Content: prompt})

	reqBody := map[string]interface{}{
		"model":    c.model,
		"messages": messages,
		"stream":   false,
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(reqJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return result.Choices[0].Message.Content, nil
}
