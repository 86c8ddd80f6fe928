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
	"go.uber.org/goleak"
)

func TestFeedbackCleanupPhaseStripsTAPAndAcksFeedback(t *testing.T) {
	var sawTAP bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/feedback"):
			_ = json.NewEncoder(w).Encode(transport.FeedbackReply{Acknowledged: true})
		case strings.HasSuffix(r.URL.Path, "/cleanup"):
			var req transport.Cleanup
			_ = json.NewDecoder(r.Body).Decode(&req)
			if _, ok := req.ValidationResponse["tap"]; ok {
				sawTAP = true
			}
			_ = json.NewEncoder(w).Encode(transport.CleanupReply{Acknowledged: true, CleanupOK: true})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	addr := strings.TrimPrefix(srv.URL, "http://")

	mg := newTestMetagraph(t, []model.MinerIdentity{{UID: 1, NetworkAddress: addr, Hotkey: "hk1"}})
	hotkey, err := identity.NewHotkey()
	require.NoError(t, err)

	core := &Core{Config: config.Default(), Metagraph: mg, Transport: transport.NewClient(hotkey)}
	round := model.NewRound("r1", 1, 1)
	round.ActiveUIDs = mapset.NewThreadUnsafeSet[int64](1)
	round.TaskList = []model.TaskSpec{{TaskID: "t1"}}
	round.RecordOutcome(model.ValidationOutcome{UID: 1, TaskID: "t1", APIScore: 0.9, FinalScore: 0.85, StatusCode: model.StatusValidated})

	require.NoError(t, (FeedbackCleanupPhase{}).Run(context.Background(), core, round))
	require.False(t, sawTAP)
}

func TestFeedbackCleanupPhaseLeavesNoGoroutinesBehind(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/feedback"):
			_ = json.NewEncoder(w).Encode(transport.FeedbackReply{Acknowledged: true})
		case strings.HasSuffix(r.URL.Path, "/cleanup"):
			_ = json.NewEncoder(w).Encode(transport.CleanupReply{Acknowledged: true, CleanupOK: true})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	addr := strings.TrimPrefix(srv.URL, "http://")

	mg := newTestMetagraph(t, []model.MinerIdentity{{UID: 1, NetworkAddress: addr, Hotkey: "hk1"}})
	hotkey, err := identity.NewHotkey()
	require.NoError(t, err)

	core := &Core{Config: config.Default(), Metagraph: mg, Transport: transport.NewClient(hotkey)}
	round := model.NewRound("r2", 1, 1)
	round.ActiveUIDs = mapset.NewThreadUnsafeSet[int64](1)
	round.TaskList = []model.TaskSpec{{TaskID: "t1"}}
	round.RecordOutcome(model.ValidationOutcome{UID: 1, TaskID: "t1", APIScore: 0.9, FinalScore: 0.85, StatusCode: model.StatusValidated})

	require.NoError(t, (FeedbackCleanupPhase{}).Run(context.Background(), core, round))
}

func TestSanitizedValidationPayloadOmitsTAP(t *testing.T) {
	out := model.ValidationOutcome{TaskID: "t1", APIScore: 0.5, FinalScore: 0.4, StatusCode: model.StatusValidated}
	payload := sanitizedValidationPayload(out)
	_, hasTAP := payload["tap"]
	require.False(t, hasTAP)
	require.Equal(t, "t1", payload["task_id"])
}
