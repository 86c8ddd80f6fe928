// Package transport implements the four validator-to-miner message
// exchanges the round loop drives: handshake liveness probes, task dispatch,
// per-task feedback, and post-validation cleanup. Every exchange is an
// ordinary HTTP request/reply pair rather than a full RPC framework, signed
// with the validator's hotkey so a miner can authenticate the sender the
// same way a Bittensor dendrite call is signed.
package transport

// Handshake is sent to every miner with a registered network address before
// task dispatch, mirroring StartRoundSynapse in the protocol this subnet was
// distilled from.
type Handshake struct {
	Version   string `json:"version"`
	RoundID   string `json:"round_id"`
	Timestamp int64  `json:"timestamp"`
}

// HandshakeReply is a miner's response to a Handshake.
type HandshakeReply struct {
	MinerVersion       string `json:"miner_version"`
	IsReady            bool   `json:"is_ready"`
	AvailableCapacity  int    `json:"available_capacity"`
	ErrorMessage       string `json:"error_message,omitempty"`
}

// Task is the prompt-only payload dispatched to a miner. It deliberately
// carries none of the invariants, policy, or verify plan the validator
// generated the task with — only the task_id and a natural-language prompt,
// matching TaskSynapse.from_spec's "miners should receive only task_id and
// prompt" contract.
type Task struct {
	Version string `json:"version"`
	TaskID  string `json:"task_id"`
	Prompt  string `json:"prompt"`
}

// TaskReply is a miner's response to a Task.
type TaskReply struct {
	TaskID               string         `json:"task_id"`
	ResultSummary        map[string]any `json:"result_summary"`
	EvidenceHint         map[string]any `json:"evidence_hint"`
	WorkspaceZipB64      string         `json:"workspace_zip_b64,omitempty"`
	WorkspaceZipFilename string         `json:"workspace_zip_filename,omitempty"`
	WorkspaceZipSHA256   string         `json:"workspace_zip_sha256,omitempty"`
	WorkspaceZipSize     int            `json:"workspace_zip_size_bytes,omitempty"`
	Notes                string         `json:"notes,omitempty"`
}

// Feedback is sent to a miner in the feedback phase, once every task of the
// round has been scored, so the miner hears its per-task result before
// settlement.
type Feedback struct {
	Version        string   `json:"version"`
	RoundID        string   `json:"round_id"`
	TaskID         string   `json:"task_id"`
	MinerUID       int64    `json:"miner_uid"`
	Score          float64  `json:"score"`
	FeedbackText   string   `json:"feedback_text,omitempty"`
	Suggestions    []string `json:"suggestions,omitempty"`
	LatencySeconds float64  `json:"latency_seconds"`
}

// FeedbackReply is a miner's acknowledgement of a Feedback message.
type FeedbackReply struct {
	Acknowledged bool `json:"acknowledged"`
}

// Cleanup tells a miner it can release resources held for task_id; TAP
// (Test Access Point) identifiers present in the validation response are
// stripped before this is sent, since they are validator-internal routing
// details a miner has no use for.
type Cleanup struct {
	Version            string         `json:"version"`
	TaskID             string         `json:"task_id"`
	ValidationResponse map[string]any `json:"validation_response"`
}

// CleanupReply is a miner's acknowledgement of a Cleanup message.
type CleanupReply struct {
	Acknowledged bool   `json:"acknowledged"`
	CleanupOK    bool   `json:"cleanup_ok"`
	ErrorMessage string `json:"error_message,omitempty"`
}
