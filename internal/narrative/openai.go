package narrative

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
)

// OpenAIConfig selects the chat-completion backend.
type OpenAIConfig struct {
	Provider    string // openai or azure
	APIKey      string
	BaseURL     string // Azure endpoint, or an OpenAI-compatible base URL
	APIVersion  string // Azure only
	Model       string // model name, or Azure deployment
	Temperature float32
}

// OpenAIExtractor asks a chat-completion model for the narrative facts.
type OpenAIExtractor struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIExtractor(cfg OpenAIConfig) *OpenAIExtractor {
	var cc openai.ClientConfig
	if cfg.Provider == ProviderAzure {
		cc = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			cc.APIVersion = cfg.APIVersion
		}
	} else {
		cc = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			cc.BaseURL = cfg.BaseURL
		}
	}
	return &OpenAIExtractor{
		client:      openai.NewClientWithConfig(cc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

func (e *OpenAIExtractor) Extract(ctx context.Context, d record.ClientDescription) (Facts, error) {
	doc, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return Facts{}, fmt.Errorf("encode description: %w", err)
	}
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(extractionPrompt, doc)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Facts{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Facts{}, fmt.Errorf("%w: no choices returned", ErrMalformedOutput)
	}
	return ParseFacts(resp.Choices[0].Message.Content)
}
