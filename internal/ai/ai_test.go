package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"wayfarer/internal/config"
	"wayfarer/internal/types"
)

type stubModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
}

func (m *stubModel) GenerateContent(_ context.Context, msgs []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = msgs
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *stubModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, opts...)
}

func history() []types.Turn {
	return []types.Turn{
		{Role: types.RoleUser, Content: "hi"},
		{Role: types.RoleAssistant, Content: "Hello! Where to?"},
		{Role: types.RoleSystem, Content: "ignored"},
		{Role: types.RoleUser, Content: "what is Lisbon like in May?"},
	}
}

func TestOpenAIGeneratorBuildsChat(t *testing.T) {
	m := &stubModel{reply: "  Warm and sunny.  "}
	g := NewOpenAIFromModel(m)

	out, err := g.Generate(context.Background(), "be brief", history())
	require.NoError(t, err)
	assert.Equal(t, "Warm and sunny.", out)

	require.Len(t, m.messages, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, m.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, m.messages[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, m.messages[2].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, m.messages[3].Role)
	assert.Equal(t, llms.TextContent{Text: "what is Lisbon like in May?"}, m.messages[3].Parts[0])
}

func TestOpenAIGeneratorFailuresWrapErrGeneration(t *testing.T) {
	g := NewOpenAIFromModel(&stubModel{err: errors.New("boom")})
	_, err := g.Generate(context.Background(), "", history())
	assert.ErrorIs(t, err, ErrGeneration)

	g = NewOpenAIFromModel(&stubModel{reply: "   "})
	_, err = g.Generate(context.Background(), "", history())
	assert.ErrorIs(t, err, ErrGeneration)

	_, err = g.Generate(context.Background(), "", []types.Turn{{Role: types.RoleAssistant, Content: "hello"}})
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestGeminiHistoryRoles(t *testing.T) {
	prior, last, err := splitHistory(history())
	require.NoError(t, err)
	assert.Equal(t, "what is Lisbon like in May?", last.Content)

	contents := geminiHistory(prior)
	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
}

func TestNewWithoutCredentialsDisablesGeneration(t *testing.T) {
	for _, backend := range []string{"gemini", "openai"} {
		g, closeFn, err := New(context.Background(), config.AIConfig{Backend: backend}, zap.NewNop())
		require.NoError(t, err)
		assert.Nil(t, g)
		closeFn()
	}

	_, _, err := New(context.Background(), config.AIConfig{Backend: "parrot"}, zap.NewNop())
	assert.Error(t, err)
}

func TestTravelSystemPromptCarriesDate(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	assert.Contains(t, TravelSystemPrompt(now), "2026-10-18")
}
