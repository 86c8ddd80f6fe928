package model

// MinerIdentity describes one miner as known through the chain substrate's
// metagraph. Negative UIDs are reserved for local-test synthetic targets.
type MinerIdentity struct {
	UID            int64  `json:"uid"`
	NetworkAddress string `json:"network_address"`
	Hotkey         string `json:"hotkey"`
}

// HasAddress reports whether this identity carries a dialable network
// address. Validators in the metagraph typically have a zero address and
// must never be probed or dispatched to.
func (m MinerIdentity) HasAddress() bool {
	return m.NetworkAddress != "" && m.NetworkAddress != "0.0.0.0:0"
}

// DeliveryStatus enumerates the outcome of one transport round-trip to a
// miner for a single task.
type DeliveryStatus string

const (
	DeliveryOK         DeliveryStatus = "ok"
	DeliveryTimeout    DeliveryStatus = "timeout"
	DeliveryError      DeliveryStatus = "error"
	DeliveryNoResponse DeliveryStatus = "no_response"
)

// TaskResponse is what the Dispatcher records for one (uid, task) pair.
type TaskResponse struct {
	UID                int64          `json:"uid"`
	TaskID             string         `json:"task_id"`
	WorkspaceZip       []byte         `json:"-"`
	WorkspaceZipSHA256 string         `json:"workspace_zip_sha256,omitempty"`
	WorkspaceZipSize   int            `json:"workspace_zip_size"`
	LatencySeconds     float64        `json:"latency_seconds"`
	DeliveryStatus     DeliveryStatus `json:"delivery_status"`
	ResultSummary      map[string]any `json:"result_summary,omitempty"`
	Notes              string         `json:"notes,omitempty"`
}

// Declined reports whether the miner explicitly declined the task (a
// well-formed ok reply with no artifact attached).
func (r TaskResponse) Declined() bool {
	return r.DeliveryStatus == DeliveryOK && len(r.WorkspaceZip) == 0
}
