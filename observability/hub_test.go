package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHubPublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	ch, unsubscribe := hub.subscribe()
	defer unsubscribe()

	hub.Publish(ProgressEvent{RoundID: "r1", Phase: "dispatching"})

	select {
	case ev := <-ch:
		require.Equal(t, "r1", ev.RoundID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for progress event")
	}
}

type fakeProvider struct {
	byID map[string]RoundSummaryView
}

func (f fakeProvider) RoundSummary(roundID string) (RoundSummaryView, bool) {
	v, ok := f.byID[roundID]
	return v, ok
}

func (f fakeProvider) RecentRoundSummaries(limit int) []RoundSummaryView {
	out := make([]RoundSummaryView, 0, len(f.byID))
	for _, v := range f.byID {
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}

func TestGraphQLHandlerBuildsWithoutError(t *testing.T) {
	provider := fakeProvider{byID: map[string]RoundSummaryView{
		"r1": {RoundID: "r1", Phase: "done", TaskCount: 2, ActiveMiners: 5, Scores: map[int64]float64{1: 0.9}},
	}}
	handler, err := NewGraphQLHandler(provider)
	require.NoError(t, err)
	require.NotNil(t, handler)
}
