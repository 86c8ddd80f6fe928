package telemetry

import (
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

// HostSnapshot is a one-shot resource reading attached to the round_start
// ledger event, so a slow round can be correlated against host pressure
// after the fact.
type HostSnapshot struct {
	Uptime      uint64  `json:"uptime_seconds"`
	CPUPercent  float64 `json:"cpu_percent"`
	MemUsed     uint64  `json:"mem_used_bytes"`
	MemTotal    uint64  `json:"mem_total_bytes"`
	MemPercent  float64 `json:"mem_percent"`
}

// Snapshot captures the current host resource usage. Any individual
// collector failing yields a zero value for that field rather than
// aborting the snapshot; telemetry must never block round orchestration.
func Snapshot() HostSnapshot {
	var snap HostSnapshot

	if info, err := host.Info(); err == nil {
		snap.Uptime = info.Uptime
	}
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		snap.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		snap.MemUsed = vm.Used
		snap.MemTotal = vm.Total
		snap.MemPercent = vm.UsedPercent
	}
	return snap
}
