package telemetry

import (
	"testing"

	"github.com/ethereum/go-ethereum/metrics"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRegistersEveryMetric(t *testing.T) {
	reg := metrics.NewRegistry()
	metrics.DefaultRegistry = reg
	r := NewRegistry()
	require.NotNil(t, r.RoundsStarted)

	r.RoundsStarted.Inc(1)
	r.MinersAlive.Update(12)

	count := 0
	reg.Each(func(string, interface{}) { count++ })
	require.Greater(t, count, 5)
}

func TestSnapshotNeverErrors(t *testing.T) {
	snap := Snapshot()
	require.GreaterOrEqual(t, snap.MemPercent, 0.0)
}
