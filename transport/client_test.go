package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/luxapientia/alphacore-sub000/identity"
	"github.com/stretchr/testify/require"
)

func TestFanoutCollectsRepliesAndErrors(t *testing.T) {
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("X-Validator-Signature"))
		var req Handshake
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(HandshakeReply{IsReady: true, MinerVersion: "1.0", AvailableCapacity: 4})
	}))
	defer okServer.Close()

	failServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failServer.Close()

	hk, err := identity.NewHotkey()
	require.NoError(t, err)
	client := NewClient(hk)

	targets := []Target{
		{UID: 1, NetworkAddress: addrOf(t, okServer.URL)},
		{UID: 2, NetworkAddress: addrOf(t, failServer.URL)},
	}

	results := Fanout[Handshake, HandshakeReply](context.Background(), client, targets, "/handshake",
		Handshake{Version: "v1", RoundID: "r1", Timestamp: time.Now().Unix()}, 2*time.Second, 4)

	require.Len(t, results, 2)
	byUID := map[int64]Result[HandshakeReply]{}
	for _, r := range results {
		byUID[r.UID] = r
	}
	require.NoError(t, byUID[1].Err)
	require.True(t, byUID[1].Reply.IsReady)
	require.Error(t, byUID[2].Err)
}

func addrOf(t *testing.T, url string) string {
	t.Helper()
	// httptest servers are on 127.0.0.1:<port>; strip the scheme only.
	const prefix = "http://"
	require.True(t, len(url) > len(prefix) && url[:len(prefix)] == prefix)
	return url[len(prefix):]
}
