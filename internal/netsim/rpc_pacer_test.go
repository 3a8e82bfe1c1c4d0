package netsim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShouldSendServerRPCDisabledByDefault(t *testing.T) {
	o, _ := newFixtureOrchestrator(RoleAutonomousProxy, 1.0)
	require.False(t, o.ShouldSendServerRPC(10))
}

// TestShouldSendServerRPCAccumulatesUncapped pins down the
// deliberately-preserved pacer quirk: the capped copy of an oversized dt
// does not take part in the decision, and the full, uncapped dt is what
// lands in the accumulator. A single large spike can therefore trigger
// back-to-back sends instead of the single send a capped accumulator would
// allow.
func TestShouldSendServerRPCAccumulatesUncapped(t *testing.T) {
	o, _ := newFixtureOrchestrator(RoleAutonomousProxy, 1.0)
	o.SetDesiredServerRPCSendFrequency(10) // threshold = 0.1s

	require.True(t, o.ShouldSendServerRPC(0.25), "0.25s of backlog must cross the 0.1s threshold")
	require.True(t, o.ShouldSendServerRPC(0), "uncapped overflow (0.15s) still exceeds threshold with zero new dt")
	require.False(t, o.ShouldSendServerRPC(0), "overflow is now spent")
}

func TestShouldSendServerRPCSteadyRateSendsOncePerThreshold(t *testing.T) {
	o, _ := newFixtureOrchestrator(RoleAutonomousProxy, 1.0)
	o.SetDesiredServerRPCSendFrequency(10) // threshold = 0.1s

	sends := 0
	for i := 0; i < 10; i++ {
		if o.ShouldSendServerRPC(0.01) {
			sends++
		}
	}
	require.Equal(t, 1, sends, "ten 0.01s steps should cross the 0.1s threshold exactly once")
}
