package netsim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTickStateIncrementProcessed(t *testing.T) {
	ts := NewTickState(4)
	ts.RemainingAllowedSimulationTime = SimTimeFromSeconds(1.0)

	ts.IncrementProcessed(SimTimeFromSeconds(0.1), 1)
	require.Equal(t, SimTimeFromSeconds(0.1), ts.TotalProcessedSimulationTime)
	require.Equal(t, SimTimeFromSeconds(0.9), ts.RemainingAllowedSimulationTime)
	require.Equal(t, Keyframe(1), ts.LastProcessedInputKeyframe)

	at1, ok := ts.SimTimeAt(1)
	require.True(t, ok)
	require.Equal(t, SimTimeFromSeconds(0.1), at1)

	ts.IncrementProcessed(SimTimeFromSeconds(0.1), 2)
	at2, ok := ts.SimTimeAt(2)
	require.True(t, ok)
	require.Equal(t, SimTimeFromSeconds(0.2), at2)
}

func TestTickStateSetTotalProcessedRewinds(t *testing.T) {
	ts := NewTickState(4)
	ts.IncrementProcessed(SimTimeFromSeconds(0.1), 1)
	ts.IncrementProcessed(SimTimeFromSeconds(0.1), 2)
	ts.IncrementProcessed(SimTimeFromSeconds(0.1), 3)

	ts.SetTotalProcessed(SimTimeFromSeconds(0.15), 2)
	require.Equal(t, SimTimeFromSeconds(0.15), ts.TotalProcessedSimulationTime)
	require.Equal(t, Keyframe(2), ts.LastProcessedInputKeyframe)

	at2, ok := ts.SimTimeAt(2)
	require.True(t, ok)
	require.Equal(t, SimTimeFromSeconds(0.15), at2)

	_, ok = ts.SimTimeAt(3)
	require.False(t, ok, "stamps beyond the rewound keyframe must be cleared")
}

func TestTickStateResyncStampPreservesTotal(t *testing.T) {
	ts := NewTickState(4)
	ts.IncrementProcessed(SimTimeFromSeconds(0.1), 1)
	total := ts.TotalProcessedSimulationTime

	ts.ResyncStamp(5)
	require.Equal(t, total, ts.TotalProcessedSimulationTime, "resync must not change total processed time")

	at5, ok := ts.SimTimeAt(5)
	require.True(t, ok)
	require.Equal(t, total, at5)
}
