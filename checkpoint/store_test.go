package checkpoint

import (
	"testing"
	"time"

	"github.com/luxapientia/alphacore-sub000/model"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)
	defer store.Close()

	c := model.Checkpoint{
		RoundID:    "round-1",
		Phase:      model.PhaseDispatching,
		Timestamp:  time.Now(),
		TaskCount:  4,
		ActiveUIDs: []int64{1, 2, 3},
		Scores:     map[int64]float64{1: 0.5},
	}
	require.NoError(t, store.Save(c))

	loaded, ok, err := store.Load("round-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, c.RoundID, loaded.RoundID)
	require.Equal(t, c.Phase, loaded.Phase)
}

func TestLoadMissingReturnsNotOK(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Load("nope")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpenRefusesSecondLock(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)
	defer store.Close()

	_, err = Open(dir)
	require.Error(t, err)
}

func TestGCDeletesStaleCheckpoints(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)
	defer store.Close()

	stale := model.Checkpoint{RoundID: "old", Timestamp: time.Now().Add(-48 * time.Hour)}
	fresh := model.Checkpoint{RoundID: "new", Timestamp: time.Now()}
	require.NoError(t, store.Save(stale))
	require.NoError(t, store.Save(fresh))

	require.NoError(t, store.GC(24*time.Hour))

	_, ok, _ := store.Load("old")
	require.False(t, ok)
	_, ok, _ = store.Load("new")
	require.True(t, ok)
}
