// Package llm wraps the two OpenAI roles this system consumes: the
// structured-completion call that infers a task schema, and the vision-driven
// computer-use collaborator that operates the browser.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Client holds the API connection and the model selection for both roles.
type Client struct {
	client        *openai.Client
	schemaModel   string
	computerModel string
}

// NewClient builds a client from an explicit API key — credentials are
// threaded in, never read from process-global state.
func NewClient(apiKey, schemaModel, computerModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is not set")
	}
	return &Client{
		client:        openai.NewClient(apiKey),
		schemaModel:   schemaModel,
		computerModel: computerModel,
	}, nil
}

// CompleteJSON asks the model for a single JSON object conforming to schema.
// The response may arrive fenced in a markdown block; callers unfence it.
func (c *Client) CompleteJSON(ctx context.Context, schema map[string]any, prompt string) (string, error) {
	schemaText, err := json.MarshalIndent(schema, "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}

	system := fmt.Sprintf(
		"You MUST produce output that adheres to the following JSON schema:\n\n%s. Output your JSON in a ```json markdown block.",
		schemaText,
	)

	resp, err := c.chatWithBackoff(ctx, openai.ChatCompletionRequest{
		Model: c.schemaModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// chatWithBackoff retries rate-limited calls with exponential backoff, the
// only error class worth waiting out.
func (c *Client) chatWithBackoff(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var resp openai.ChatCompletionResponse
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		resp, err = c.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !strings.Contains(err.Error(), "429") {
			return resp, err
		}
		wait := time.Duration(3*(1<<attempt)) * time.Second
		select {
		case <-ctx.Done():
			return resp, ctx.Err()
		case <-time.After(wait):
		}
	}
	return resp, err
}
