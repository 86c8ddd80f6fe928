package chain

import (
	"os"
	"testing"

	"github.com/luxapientia/alphacore-sub000/model"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	block   uint64
	tempo   uint64
	neurons []model.MinerIdentity
	tempoErr error
}

func (f *fakeClient) CurrentBlock() (uint64, error) { return f.block, nil }
func (f *fakeClient) Tempo(uint16) (uint64, error) {
	if f.tempoErr != nil {
		return 0, f.tempoErr
	}
	return f.tempo, nil
}
func (f *fakeClient) Neurons(uint16) ([]model.MinerIdentity, error) { return f.neurons, nil }

func newTestMetagraph(t *testing.T, client Client) *Metagraph {
	t.Helper()
	dir := t.TempDir()
	mg, err := Open(client, 1, dir)
	require.NoError(t, err)
	t.Cleanup(func() { mg.Close() })
	return mg
}

func TestResyncPopulatesUIDsAndActiveSet(t *testing.T) {
	client := &fakeClient{
		neurons: []model.MinerIdentity{
			{UID: 1, NetworkAddress: "10.0.0.1:8091", Hotkey: "hk1"},
			{UID: 2, NetworkAddress: "", Hotkey: "hk2"},
		},
	}
	mg := newTestMetagraph(t, client)
	require.NoError(t, mg.Resync())

	require.ElementsMatch(t, []int64{1, 2}, mg.UIDs())
	active := mg.ActiveSet()
	require.True(t, active.Contains(int64(1)))
	require.False(t, active.Contains(int64(2)))

	id, ok := mg.Identity(1)
	require.True(t, ok)
	require.Equal(t, "hk1", id.Hotkey)
	require.False(t, mg.LastSync().IsZero())
}

func TestClockTempoFallsBackToDefaultOnError(t *testing.T) {
	client := &fakeClient{tempoErr: os.ErrClosed}
	clock := NewClock(client, 1, 360)
	require.Equal(t, uint64(360), clock.Tempo())
}

func TestRoundDurationBlocksFloorsAtOne(t *testing.T) {
	require.Equal(t, uint64(1), RoundDurationBlocks(1, 1, 360))
	require.Equal(t, uint64(360), RoundDurationBlocks(2, 1, 360))
}
