package chain

// WeightSetter adapts an RPCClient to validator.WeightSetter, binding the
// netuid and validator hotkey the settlement phase's normalized scores are
// committed under.
type WeightSetter struct {
	rpc    *RPCClient
	netuid uint16
	hotkey string
}

// NewWeightSetter builds a WeightSetter bound to rpc, netuid, and hotkey.
func NewWeightSetter(rpc *RPCClient, netuid uint16, hotkey string) *WeightSetter {
	return &WeightSetter{rpc: rpc, netuid: netuid, hotkey: hotkey}
}

// UpdateScores commits normalized to the chain.
func (w *WeightSetter) UpdateScores(normalized map[int64]float64) error {
	return w.rpc.SetWeights(w.netuid, w.hotkey, normalized)
}
