package validator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/luxapientia/alphacore-sub000/config"
	"github.com/luxapientia/alphacore-sub000/identity"
	"github.com/luxapientia/alphacore-sub000/model"
	"github.com/luxapientia/alphacore-sub000/transport"
	"github.com/stretchr/testify/require"
)

func TestDispatchPhaseRecordsResponsesAndDiscardsMismatchedTaskID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req transport.Task
		_ = json.NewDecoder(r.Body).Decode(&req)
		reply := transport.TaskReply{TaskID: req.TaskID, ResultSummary: map[string]any{"ok": true}}
		if req.TaskID == "t2" {
			reply.TaskID = "wrong-id"
		}
		_ = json.NewEncoder(w).Encode(reply)
	}))
	defer srv.Close()
	addr := strings.TrimPrefix(srv.URL, "http://")

	mg := newTestMetagraph(t, []model.MinerIdentity{{UID: 1, NetworkAddress: addr, Hotkey: "hk1"}})
	hotkey, err := identity.NewHotkey()
	require.NoError(t, err)

	core := &Core{Config: config.Default(), Metagraph: mg, Transport: transport.NewClient(hotkey)}
	round := model.NewRound("r1", 1, 1)
	round.ActiveUIDs = mapset.NewThreadUnsafeSet[int64](1)
	round.TaskList = []model.TaskSpec{
		{TaskID: "t1", Prompt: "do the thing"},
		{TaskID: "t2", Prompt: "do another thing"},
	}

	require.NoError(t, (DispatchPhase{}).Run(context.Background(), core, round))

	resp1 := round.Responses[1]["t1"]
	require.Equal(t, model.DeliveryOK, resp1.DeliveryStatus)

	resp2 := round.Responses[1]["t2"]
	require.Equal(t, model.DeliveryNoResponse, resp2.DeliveryStatus)
}

func TestDispatchPhaseAbortsWithNoTasks(t *testing.T) {
	mg := newTestMetagraph(t, []model.MinerIdentity{{UID: 1, NetworkAddress: "x:1", Hotkey: "hk1"}})
	hotkey, err := identity.NewHotkey()
	require.NoError(t, err)
	core := &Core{Config: config.Default(), Metagraph: mg, Transport: transport.NewClient(hotkey)}
	round := model.NewRound("r1", 1, 1)
	round.ActiveUIDs = mapset.NewThreadUnsafeSet[int64](1)

	err = (DispatchPhase{}).Run(context.Background(), core, round)
	require.Error(t, err)
	perr, ok := err.(*model.PhaseError)
	require.True(t, ok)
	require.Equal(t, model.KindAbortRound, perr.Kind)
}
