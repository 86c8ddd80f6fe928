package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type jsonrpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
}

// newFakeRPCServer returns an httptest server speaking just enough JSON-RPC
// 2.0 over HTTP to exercise RPCClient's CallContext usage, handing each
// decoded method name to respond for its canned result.
func newFakeRPCServer(t *testing.T, respond func(method string, params []json.RawMessage) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		resp := jsonrpcResponse{JSONRPC: "2.0", ID: req.ID, Result: respond(req.Method, req.Params)}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestRPCClientCurrentBlock(t *testing.T) {
	server := newFakeRPCServer(t, func(method string, _ []json.RawMessage) any {
		require.Equal(t, "chain_currentBlock", method)
		return uint64(4200)
	})
	defer server.Close()

	rc, err := DialRPC(context.Background(), server.URL, time.Second)
	require.NoError(t, err)
	defer rc.Close()

	block, err := rc.CurrentBlock()
	require.NoError(t, err)
	require.Equal(t, uint64(4200), block)
}

func TestRPCClientTempo(t *testing.T) {
	server := newFakeRPCServer(t, func(method string, _ []json.RawMessage) any {
		require.Equal(t, "subnet_tempo", method)
		return uint64(360)
	})
	defer server.Close()

	rc, err := DialRPC(context.Background(), server.URL, time.Second)
	require.NoError(t, err)
	defer rc.Close()

	tempo, err := rc.Tempo(1)
	require.NoError(t, err)
	require.Equal(t, uint64(360), tempo)
}

func TestRPCClientNeuronsDecodesWireShape(t *testing.T) {
	server := newFakeRPCServer(t, func(method string, _ []json.RawMessage) any {
		require.Equal(t, "subnet_neurons", method)
		return []neuronWire{
			{UID: 1, Hotkey: "hk1", NetworkAddress: "10.0.0.1:8091", Stake: "1000"},
		}
	})
	defer server.Close()

	rc, err := DialRPC(context.Background(), server.URL, time.Second)
	require.NoError(t, err)
	defer rc.Close()

	neurons, err := rc.Neurons(1)
	require.NoError(t, err)
	require.Len(t, neurons, 1)
	require.Equal(t, int64(1), neurons[0].UID)
	require.Equal(t, "10.0.0.1:8091", neurons[0].NetworkAddress)
}

func TestRPCClientSetWeightsRejectsFalseResult(t *testing.T) {
	server := newFakeRPCServer(t, func(method string, _ []json.RawMessage) any {
		require.Equal(t, "subnet_setWeights", method)
		return false
	})
	defer server.Close()

	rc, err := DialRPC(context.Background(), server.URL, time.Second)
	require.NoError(t, err)
	defer rc.Close()

	err = rc.SetWeights(1, "hk", map[int64]float64{1: 1.0})
	require.Error(t, err)
}
