// README: LLM generation contract used by the assistant's generic reply tier; Gemini and OpenAI-compatible backends.
package ai

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"wayfarer/internal/config"
	"wayfarer/internal/types"
)

// ErrGeneration wraps every backend failure, including blank completions.
var ErrGeneration = errors.New("ai: generation failed")

// Generator produces a free-form assistant reply for a conversation.
// history is ordered oldest first and should end with the user turn being answered.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, history []types.Turn) (string, error)
}

// New builds the configured backend. It returns a nil Generator (and no error)
// when the backend has no credentials, so callers fall through to canned replies.
func New(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (Generator, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case "gemini":
		if cfg.GeminiKey == "" {
			log.Warn("gemini api key missing, generic generation disabled")
			return nil, noop, nil
		}
		g, err := NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, noop, err
		}
		return g, g.Close, nil
	case "openai":
		if cfg.OpenAIKey == "" {
			log.Warn("openai api key missing, generic generation disabled")
			return nil, noop, nil
		}
		g, err := NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			return nil, noop, err
		}
		return g, noop, nil
	default:
		return nil, noop, fmt.Errorf("ai: unknown backend %q", cfg.Backend)
	}
}

// splitHistory separates the turn to answer from the context before it.
// System turns are dropped; they are carried by the system prompt instead.
func splitHistory(history []types.Turn) ([]types.Turn, types.Turn, error) {
	last, idx := types.LatestUserTurn(history)
	if idx < 0 {
		return nil, types.Turn{}, fmt.Errorf("%w: no user turn in history", ErrGeneration)
	}
	prior := make([]types.Turn, 0, idx)
	for _, t := range history[:idx] {
		if t.Role == types.RoleSystem {
			continue
		}
		prior = append(prior, t)
	}
	return prior, last, nil
}
