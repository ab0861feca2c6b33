package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"wayfarer/internal/types"
)

// OpenAIGenerator talks to any OpenAI-compatible chat endpoint through langchaingo.
type OpenAIGenerator struct {
	llm llms.Model
}

func NewOpenAI(token, baseURL, model string) (*OpenAIGenerator, error) {
	opts := []openai.Option{openai.WithToken(token), openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai model: %w", err)
	}
	return &OpenAIGenerator{llm: llm}, nil
}

// NewOpenAIFromModel wraps an existing langchaingo model.
func NewOpenAIFromModel(m llms.Model) *OpenAIGenerator {
	return &OpenAIGenerator{llm: m}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, systemPrompt string, history []types.Turn) (string, error) {
	prior, last, err := splitHistory(history)
	if err != nil {
		return "", err
	}
	resp, err := g.llm.GenerateContent(ctx, chatMessages(systemPrompt, prior, last), llms.WithTemperature(0.6))
	if err != nil {
		return "", fmt.Errorf("%w: openai: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrGeneration)
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", ErrGeneration)
	}
	return text, nil
}

func chatMessages(systemPrompt string, prior []types.Turn, last types.Turn) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, len(prior)+2)
	if systemPrompt != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	for _, t := range prior {
		role := llms.ChatMessageTypeHuman
		if t.Role == types.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		msgs = append(msgs, llms.TextParts(role, t.Content))
	}
	return append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, last.Content))
}
