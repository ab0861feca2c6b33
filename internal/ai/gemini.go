package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"wayfarer/internal/types"
)

// GeminiGenerator implements Generator using Google's Gemini models.
type GeminiGenerator struct {
	client    *genai.Client
	modelName string
}

// NewGemini initializes a new Gemini client.
func NewGemini(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	return &GeminiGenerator{client: client, modelName: modelName}, nil
}

// Close cleans up the Gemini client resources.
func (g *GeminiGenerator) Close() {
	g.client.Close()
}

func (g *GeminiGenerator) Generate(ctx context.Context, systemPrompt string, history []types.Turn) (string, error) {
	prior, last, err := splitHistory(history)
	if err != nil {
		return "", err
	}

	// A model handle is a lightweight value; one per call keeps the system
	// instruction local to this request.
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(0.6)
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}

	cs := model.StartChat()
	cs.History = geminiHistory(prior)

	resp, err := cs.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", ErrGeneration, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no response candidates from Gemini", ErrGeneration)
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		}
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty Gemini response", ErrGeneration)
	}
	return text, nil
}

// geminiHistory maps turns onto Gemini's "user"/"model" roles.
func geminiHistory(turns []types.Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == types.RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Content)}})
	}
	return out
}
