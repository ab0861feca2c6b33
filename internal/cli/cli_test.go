package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfarer/internal/service/assistant"
	"wayfarer/internal/types"
)

// offline clears every credential so the pipeline runs on its fallbacks.
func offline(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AMADEUS_CLIENT_ID", "AMADEUS_CLIENT_SECRET", "GEMINI_API_KEY",
		"OPENAI_API_KEY", "GOOGLE_MAPS_API_KEY", "WAYFARER_PARAM_PREFIX",
		"WAYFARER_AI_BACKEND", "WAYFARER_INTENT_THRESHOLD",
	} {
		t.Setenv(k, "")
	}
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestClassify(t *testing.T) {
	offline(t)

	out, _, err := run(t, "classify", "Find flights from New York to London on June 15th")
	require.NoError(t, err)
	assert.Contains(t, out, "category:   flight")
	assert.Contains(t, out, "confidence: 0.90")
	assert.Contains(t, out, "route:      handler")

	out, _, err = run(t, "classify", "thanks!")
	require.NoError(t, err)
	assert.Contains(t, out, "no intent")
}

func TestExtract(t *testing.T) {
	offline(t)

	out, _, err := run(t, "extract", "flights from Paris to Rome for two adults")
	require.NoError(t, err)
	assert.Contains(t, out, "origin: Paris")
	assert.Contains(t, out, "destination: Rome")
	assert.Contains(t, out, "adults: 2")
	assert.Contains(t, out, "- travel date")

	_, _, err = run(t, "extract", "--kind", "train", "anything")
	require.Error(t, err)
}

func TestRunExtractNormalizesDates(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out, err := runExtract("flight", "flights from Paris to Rome on June 15th", now)
	require.NoError(t, err)
	assert.Equal(t, "2026-06-15", out.Dates["depart_date"])
	assert.Empty(t, out.Missing)
}

func TestResolveUsesTableWithoutProvider(t *testing.T) {
	offline(t)

	out, _, err := run(t, "resolve", "New", "York")
	require.NoError(t, err)
	assert.Equal(t, "JFK\ttable\n", out)

	_, _, err = run(t, "resolve", "  ")
	require.Error(t, err)
}

func TestAskFallsBackToCannedReply(t *testing.T) {
	offline(t)

	out, errOut, err := run(t, "ask", "--trail", "Find flights from New York to London on June 15th")
	require.NoError(t, err)
	assert.Contains(t, out, "New York to London")
	assert.Contains(t, errOut, string(assistant.StateHandlerFailed))

	out, _, err = run(t, "ask", "--first", "hello there")
	require.NoError(t, err)
	assert.Equal(t, assistant.GreetingReply+"\n", out)
}

func TestAskHistory(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	h := askHistory([]string{"I'm going to Rome"}, "what should I see?", false, now)
	require.Len(t, h, 3)
	assert.Equal(t, types.RoleAssistant, h[0].Role)
	assert.Equal(t, "what should I see?", h[2].Content)
	assert.True(t, h[1].CreatedAt.Before(h[2].CreatedAt))
	assert.False(t, assistant.IsFirstTurn(h, 2))

	h = askHistory(nil, "hi", true, now)
	require.Len(t, h, 1)
	assert.True(t, assistant.IsFirstTurn(h, 0))
}
