package analyzer

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultBaseUrl is Gemini's OpenAI compatible endpoint.
const DefaultBaseUrl = "https://generativelanguage.googleapis.com/v1beta/openai"

// Model turns a prompt into the raw text of the model's answer.
//
// note: fault injection point
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OpenAIModel implements Model against any OpenAI compatible chat completions api.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

func NewOpenAIModel(baseUrl, apiKey, model string) OpenAIModel {
	config := openai.DefaultConfig(apiKey)
	if baseUrl != "" {
		config.BaseURL = baseUrl
	}
	return OpenAIModel{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (m OpenAIModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
