package ai

import (
	"bytes"
	"chat-relay/contract"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	defaultOpenAIModel = "openai"
	// fixedSeed keeps answers reproducible on endpoints that honour it.
	fixedSeed = 42
)

var _ contract.ICompleter = (*OpenAICompleter)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Seed     int           `json:"seed"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// OpenAICompleter talks to any endpoint speaking the OpenAI chat completions format.
type OpenAICompleter struct {
	endpoint string
	model    string
	client   *http.Client
	log      *slog.Logger
}

func NewOpenAICompleter(endpoint, model string, client *http.Client, log *slog.Logger) *OpenAICompleter {
	if client == nil {
		client = http.DefaultClient
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAICompleter{endpoint: endpoint, model: model, client: client, log: log}
}

// Complete returns the first choice, trimmed. An empty string means the endpoint had nothing to say.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(prompt)},
			{Role: "user", Content: prompt},
		},
		Seed: fixedSeed,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return "", fmt.Errorf("completion endpoint answered %d: %s", response.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		c.log.Debug("Completion endpoint returned no choice")
		return "", nil
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}
