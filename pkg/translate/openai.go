package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// DefaultOpenAIModel is used when OpenAIConfig.Model is empty.
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAIConfig configures the chat-completion engine.
type OpenAIConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint, e.g. for a compatible gateway.
	BaseURL     string
	Temperature float32
}

// OpenAITranslator translates with a chat-completion model. Language tags are
// turned into English language names for the prompt.
type OpenAITranslator struct {
	client *openai.Client
	model  string
	temp   float32
	mapper *LanguageMapper
	logger *logrus.Logger
}

// NewOpenAITranslator creates the engine. An API key is required.
func NewOpenAITranslator(cfg OpenAIConfig, logger *logrus.Logger) (*OpenAITranslator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAITranslator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		temp:   cfg.Temperature,
		mapper: NewLanguageMapper(),
		logger: logger,
	}, nil
}

func (t *OpenAITranslator) systemPrompt(sourceTag, targetTag string) string {
	return fmt.Sprintf(
		"You translate %s into %s. Reply with the translation only, written in the usual script for %s, with no notes or quotes.",
		t.mapper.DisplayName(sourceTag), t.mapper.DisplayName(targetTag), t.mapper.DisplayName(targetTag),
	)
}

// Translate sends a single chat completion request.
func (t *OpenAITranslator) Translate(ctx context.Context, text, sourceTag, targetTag string) (string, error) {
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       t.model,
		Temperature: t.temp,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: t.systemPrompt(sourceTag, targetTag)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	t.logger.WithFields(logrus.Fields{
		"source_lang": sourceTag,
		"target_lang": targetTag,
		"model":       t.model,
		"tokens":      resp.Usage.TotalTokens,
	}).Debug("OpenAI translation completed")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// CheckHealth lists models to verify the key and endpoint.
func (t *OpenAITranslator) CheckHealth(ctx context.Context) error {
	if _, err := t.client.ListModels(ctx); err != nil {
		return fmt.Errorf("failed to connect to OpenAI: %w", err)
	}
	return nil
}

// SupportedLanguages is open-ended for a general model.
func (t *OpenAITranslator) SupportedLanguages(ctx context.Context) ([]string, error) {
	return nil, nil
}

// Close is a no-op.
func (t *OpenAITranslator) Close() error { return nil }
