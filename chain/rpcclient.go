package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/luxapientia/alphacore-sub000/model"
)

// RPCClient is the production Client implementation, dialing the subnet's
// chain-facing JSON-RPC endpoint the same way ethclient.Client wraps an
// *rpc.Client and forwards typed calls over CallContext.
type RPCClient struct {
	c       *rpc.Client
	timeout time.Duration
}

// DialRPC connects to endpoint (ws://, http(s)://, or a unix socket path, per
// rpc.DialContext's own scheme handling).
func DialRPC(ctx context.Context, endpoint string, timeout time.Duration) (*RPCClient, error) {
	c, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("chain: dialing rpc endpoint %q: %w", endpoint, err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RPCClient{c: c, timeout: timeout}, nil
}

// Close releases the underlying connection.
func (rc *RPCClient) Close() {
	rc.c.Close()
}

// CurrentBlock returns the chain's current block height.
func (rc *RPCClient) CurrentBlock() (uint64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rc.timeout)
	defer cancel()
	var result uint64
	if err := rc.c.CallContext(ctx, &result, "chain_currentBlock"); err != nil {
		return 0, fmt.Errorf("chain: chain_currentBlock: %w", err)
	}
	return result, nil
}

// Tempo returns the subnet's tempo (blocks per epoch) for netuid.
func (rc *RPCClient) Tempo(netuid uint16) (uint64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rc.timeout)
	defer cancel()
	var result uint64
	if err := rc.c.CallContext(ctx, &result, "subnet_tempo", netuid); err != nil {
		return 0, fmt.Errorf("chain: subnet_tempo: %w", err)
	}
	return result, nil
}

// neuronWire is the RPC wire shape for one registered neuron, decoded into a
// model.MinerIdentity by Neurons.
type neuronWire struct {
	UID            int64  `json:"uid"`
	Hotkey         string `json:"hotkey"`
	NetworkAddress string `json:"network_address"`
	Stake          string `json:"stake"`
}

// Neurons returns every registered miner on netuid.
func (rc *RPCClient) Neurons(netuid uint16) ([]model.MinerIdentity, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rc.timeout)
	defer cancel()
	var wire []neuronWire
	if err := rc.c.CallContext(ctx, &wire, "subnet_neurons", netuid); err != nil {
		return nil, fmt.Errorf("chain: subnet_neurons: %w", err)
	}
	out := make([]model.MinerIdentity, 0, len(wire))
	for _, n := range wire {
		out = append(out, model.MinerIdentity{
			UID:            n.UID,
			Hotkey:         n.Hotkey,
			NetworkAddress: n.NetworkAddress,
		})
	}
	return out, nil
}

// SetWeights commits a normalized weight vector to the chain for netuid,
// implementing the validator.WeightSetter interface so settlement can be
// wired straight to a real chain connection.
func (rc *RPCClient) SetWeights(netuid uint16, hotkey string, normalized map[int64]float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), rc.timeout)
	defer cancel()
	uids := make([]int64, 0, len(normalized))
	weights := make([]float64, 0, len(normalized))
	for uid, w := range normalized {
		uids = append(uids, uid)
		weights = append(weights, w)
	}
	var ok bool
	if err := rc.c.CallContext(ctx, &ok, "subnet_setWeights", netuid, hotkey, uids, weights); err != nil {
		return fmt.Errorf("chain: subnet_setWeights: %w", err)
	}
	if !ok {
		return fmt.Errorf("chain: subnet_setWeights rejected by node")
	}
	return nil
}
