package netsim

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rayman-net/slideshift/internal/netsim/netlog"
)

func TestEngineColdStartSeedsOriginAndProducesFirstFrame(t *testing.T) {
	o, driver := newFixtureOrchestrator(RoleAutonomousProxy, 1.0)

	o.Tick(TickParams{Role: RoleAutonomousProxy, LocalDeltaTimeSeconds: 0.1})

	require.Equal(t, 1, driver.initCalls, "cold start must seed Sync exactly once")
	require.Equal(t, Keyframe(1), o.Buffers.Sync.HeadKeyframe())

	origin, ok := o.Buffers.Sync.Find(0)
	require.True(t, ok)
	require.InDelta(t, 0.0, origin.Pos, 1e-9)

	first, ok := o.Buffers.Sync.Find(1)
	require.True(t, ok)
	require.InDelta(t, 0.1, first.Pos, 1e-9)

	require.Len(t, driver.finalized, 1)
	require.InDelta(t, 0.1, driver.finalized[0].Pos, 1e-9)
}

func TestEngineAccumulatesAcrossTicks(t *testing.T) {
	o, driver := newFixtureOrchestrator(RoleAutonomousProxy, 1.0)

	for i := 0; i < 3; i++ {
		o.Tick(TickParams{Role: RoleAutonomousProxy, LocalDeltaTimeSeconds: 0.1})
	}

	require.Equal(t, Keyframe(3), o.Buffers.Sync.HeadKeyframe())
	last, ok := o.Buffers.Sync.Find(3)
	require.True(t, ok)
	require.InDelta(t, 0.3, last.Pos, 1e-9)
	require.Len(t, driver.finalized, 3)
	require.Equal(t, SimTimeFromSeconds(0.3), o.State.TotalProcessedSimulationTime)
}

// TestEngineConsumptionLoopRespectsRemainingBudget demonstrates that a
// frame whose own delta time exceeds the simulation-time budget collected
// so far is left for a later tick instead of being processed early,
// keeping the simulation deterministic regardless of how local frame rate
// and simulation frame rate interleave.
func TestEngineConsumptionLoopRespectsRemainingBudget(t *testing.T) {
	o, driver := newFixtureOrchestrator(RoleAutonomousProxy, 1.0)
	driver.frameDt = SimTimeFromSeconds(0.1)

	tick := func() { o.Tick(TickParams{Role: RoleAutonomousProxy, LocalDeltaTimeSeconds: 0.04}) }

	tick() // budget 0.04, input[1] needs 0.1: nothing processed yet
	require.Equal(t, Keyframe(0), o.State.LastProcessedInputKeyframe)
	require.Empty(t, driver.finalized)

	tick() // budget 0.08, still short
	require.Equal(t, Keyframe(0), o.State.LastProcessedInputKeyframe)

	tick() // budget 0.12, now enough for exactly one frame
	require.Equal(t, Keyframe(1), o.State.LastProcessedInputKeyframe)
	require.Len(t, driver.finalized, 1)
}

// TestEngineContinuityBreakReseedsFromLastProcessed exercises the sync
// continuity step directly by knocking Sync's head out of alignment with
// TickState (as a corrupted or externally-overwritten buffer would) and
// checking the engine recovers by reseeding from LastProcessedInputKeyframe
// and logging a warning.
func TestEngineContinuityBreakReseedsFromLastProcessed(t *testing.T) {
	var logBuf bytes.Buffer
	o, driver := newFixtureOrchestrator(RoleAutonomousProxy, 1.0)
	o.Logger = netlog.New(&logBuf, "warn")

	for i := 0; i < 3; i++ {
		o.Tick(TickParams{Role: RoleAutonomousProxy, LocalDeltaTimeSeconds: 0.1})
	}
	require.Equal(t, Keyframe(3), o.State.LastProcessedInputKeyframe)
	totalBefore := o.State.TotalProcessedSimulationTime

	// Simulate external corruption: Sync forgets keyframes 2 and 3.
	o.Buffers.Sync.ResetNextHeadKeyframe(1)

	o.Tick(TickParams{Role: RoleAutonomousProxy, LocalDeltaTimeSeconds: 0.1})

	require.Contains(t, logBuf.String(), "continuity")
	require.Equal(t, 2, driver.initCalls, "continuity break must reseed via InitSyncState a second time")

	reseeded, ok := o.Buffers.Sync.Find(4)
	require.True(t, ok)
	require.InDelta(t, 0.1, reseeded.Pos, 1e-9, "reseeded origin starts the trajectory over from zero")
	require.Equal(t, totalBefore+SimTimeFromSeconds(0.1), o.State.TotalProcessedSimulationTime)
}
