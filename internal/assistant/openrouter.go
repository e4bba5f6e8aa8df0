package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const openRouterURL = "https://openrouter.ai/api/v1/chat/completions"

// OpenRouter implements the Assistant interface against the OpenRouter chat
// completions API.
type OpenRouter struct {
	apiKey string
	model  string
	client *http.Client
}

// NewOpenRouter creates a new OpenRouter Assistant instance
func NewOpenRouter(apiKey string, modelName string) (*OpenRouter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter api key is required")
	}
	if modelName == "" {
		modelName = "anthropic/claude-3.5-sonnet"
	}

	return &OpenRouter{
		apiKey: apiKey,
		model:  modelName,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type openRouterRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type openRouterResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Chat answers the conversation, optionally grounded in recent receipts
func (o *OpenRouter) Chat(ctx context.Context, messages []Message, receipts []ReceiptContext) (string, error) {
	payload := openRouterRequest{
		Model:       o.model,
		Messages:    append([]Message{{Role: "system", Content: buildSystemPrompt(receipts)}}, messages...),
		MaxTokens:   1000,
		Temperature: 0.7,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openRouterURL, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Title", "Aura Health")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling openrouter API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openrouter API error (status %d): %s", resp.StatusCode, string(raw))
	}

	var result openRouterResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from openrouter")
	}

	return result.Choices[0].Message.Content, nil
}

// Close closes the OpenRouter client (no-op for HTTP client)
func (o *OpenRouter) Close() error {
	return nil
}
