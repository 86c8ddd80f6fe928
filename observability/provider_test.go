package observability

import (
	"testing"
	"time"

	"github.com/luxapientia/alphacore-sub000/ledger"
	"github.com/stretchr/testify/require"
)

func TestFileSummaryProviderRoundSummaryFindsByID(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ledger.WriteSummary(dir, ledger.RoundSummary{
		RoundID:      "round-1",
		FinishedAt:   time.Unix(1700000000, 0).UTC(),
		Phase:        "done",
		TaskCount:    8,
		ActiveMiners: 2,
		Scores:       map[int64]float64{1: 0.9},
	}))

	p := NewFileSummaryProvider(dir)
	v, ok := p.RoundSummary("round-1")
	require.True(t, ok)
	require.Equal(t, "done", v.Phase)
	require.Equal(t, 8, v.TaskCount)

	_, ok = p.RoundSummary("missing")
	require.False(t, ok)
}

func TestFileSummaryProviderRecentRoundSummariesRespectsLimit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ledger.WriteSummary(dir, ledger.RoundSummary{RoundID: "round-1", FinishedAt: time.Unix(1700000000, 0).UTC()}))
	require.NoError(t, ledger.WriteSummary(dir, ledger.RoundSummary{RoundID: "round-2", FinishedAt: time.Unix(1700000500, 0).UTC()}))

	p := NewFileSummaryProvider(dir)
	views := p.RecentRoundSummaries(1)
	require.Len(t, views, 1)
	require.Equal(t, "round-2", views[0].RoundID)
}
