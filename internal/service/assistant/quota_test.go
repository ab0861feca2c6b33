package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"wayfarer/internal/infra/testdb"
	"wayfarer/internal/modules/aiusage"
)

// TestGenerationQuotaGuard spends a one-generation allowance in Postgres and
// checks the next deferred turn drops to the canned tier without calling
// the generator.
func TestGenerationQuotaGuard(t *testing.T) {
	db := testdb.Open(t, "ai_usage")
	quota := aiusage.NewService(aiusage.NewStore(db, 1))
	gen := &fakeGenerator{text: "Spring in Kyoto is lovely."}
	o := newOrchestrator(nil, nil, func(opts *Options) {
		opts.Generator = gen
		opts.Quota = quota
	})
	req := withPrior("any cheap one-way tickets lately?")

	first := o.Respond(context.Background(), req)
	requireTerminal(t, first)
	require.Equal(t, StateGenerationSucceeded, first.State)
	require.Equal(t, "Spring in Kyoto is lovely.", first.Text)

	second := o.Respond(context.Background(), req)
	requireTerminal(t, second)
	require.Equal(t, StateGenerationFailed, second.State)
	require.Equal(t, CannedReply("any cheap one-way tickets lately?"), second.Text)
	require.Equal(t, 1, gen.calls)

	remaining, err := quota.Remaining(context.Background(), req.OwnerID)
	require.NoError(t, err)
	require.Zero(t, remaining)
}
