package validator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/luxapientia/alphacore-sub000/chain"
	"github.com/luxapientia/alphacore-sub000/config"
	"github.com/luxapientia/alphacore-sub000/identity"
	"github.com/luxapientia/alphacore-sub000/model"
	"github.com/luxapientia/alphacore-sub000/transport"
	"github.com/stretchr/testify/require"
)

func newTestMetagraph(t *testing.T, miners []model.MinerIdentity) *chain.Metagraph {
	t.Helper()
	mg, err := chain.Open(fakeNeuronClient{miners: miners}, 1, t.TempDir())
	require.NoError(t, err)
	require.NoError(t, mg.Resync())
	t.Cleanup(func() { _ = mg.Close() })
	return mg
}

type fakeNeuronClient struct {
	miners []model.MinerIdentity
}

func (f fakeNeuronClient) CurrentBlock() (uint64, error)      { return 1, nil }
func (f fakeNeuronClient) Tempo(uint16) (uint64, error)       { return 10, nil }
func (f fakeNeuronClient) Neurons(uint16) ([]model.MinerIdentity, error) {
	return f.miners, nil
}

func TestHandshakePhaseMarksReadyMinersAlive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/handshake") {
			_ = json.NewEncoder(w).Encode(transport.HandshakeReply{MinerVersion: "v1", IsReady: true, AvailableCapacity: 4})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	addr := strings.TrimPrefix(srv.URL, "http://")

	mg := newTestMetagraph(t, []model.MinerIdentity{
		{UID: 1, NetworkAddress: addr, Hotkey: "hk1"},
		{UID: 2, NetworkAddress: "", Hotkey: "hk2"}, // no address: must be skipped
	})

	hotkey, err := identity.NewHotkey()
	require.NoError(t, err)

	core := &Core{
		Config:    config.Default(),
		Metagraph: mg,
		Transport: transport.NewClient(hotkey),
	}
	round := model.NewRound("r1", 1, 1)

	require.NoError(t, (HandshakePhase{}).Run(context.Background(), core, round))
	require.True(t, round.ActiveUIDs.Contains(int64(1)))
	require.False(t, round.ActiveUIDs.Contains(int64(2)))
	require.Equal(t, "v1", round.MinerVersions[1])
}

func TestHandshakePhaseAbortsWhenNoAddressedMiners(t *testing.T) {
	mg := newTestMetagraph(t, []model.MinerIdentity{{UID: 1, NetworkAddress: "", Hotkey: "hk1"}})
	hotkey, err := identity.NewHotkey()
	require.NoError(t, err)
	core := &Core{Config: config.Default(), Metagraph: mg, Transport: transport.NewClient(hotkey)}
	round := model.NewRound("r1", 1, 1)

	err = (HandshakePhase{}).Run(context.Background(), core, round)
	require.Error(t, err)
	perr, ok := err.(*model.PhaseError)
	require.True(t, ok)
	require.Equal(t, model.KindAbortRound, perr.Kind)
}
