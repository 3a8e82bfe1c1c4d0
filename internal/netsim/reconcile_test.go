package netsim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func driveThreeTicks(o *Orchestrator[fixtureInput, fixtureSync, fixtureAux]) {
	for i := 0; i < 3; i++ {
		o.Tick(TickParams{Role: RoleAutonomousProxy, LocalDeltaTimeSeconds: 0.1})
	}
}

func TestReconcileIsIdempotentWhenPredictionMatches(t *testing.T) {
	o, driver := newFixtureOrchestrator(RoleAutonomousProxy, 1.0)
	driveThreeTicks(o) // Sync[1..3] = 0.1, 0.2, 0.3

	o.ReceiveAuthoritativeSync(2, fixtureSync{Pos: 0.2}, &fixtureAux{}, SimTimeFromSeconds(0.2))
	o.Reconcile(RoleAutonomousProxy)

	require.Equal(t, Keyframe(3), o.Buffers.Sync.HeadKeyframe(), "matching reconcile must not touch the buffer")
	last, ok := o.Buffers.Sync.Find(3)
	require.True(t, ok)
	require.InDelta(t, 0.3, last.Pos, 1e-9)
	require.Len(t, driver.finalized, 3, "no replay should have been driven")
}

func TestReconcileRollsBackAndReplaysOnMismatch(t *testing.T) {
	o, driver := newFixtureOrchestrator(RoleAutonomousProxy, 1.0)
	driveThreeTicks(o) // Sync[1..3] = 0.1, 0.2, 0.3, Input[1..3] all unacked

	o.ReceiveAuthoritativeSync(2, fixtureSync{Pos: 5.0}, &fixtureAux{}, SimTimeFromSeconds(0.2))
	o.Reconcile(RoleAutonomousProxy)

	corrected, ok := o.Buffers.Sync.Find(2)
	require.True(t, ok)
	require.InDelta(t, 5.0, corrected.Pos, 1e-9)

	replayed, ok := o.Buffers.Sync.Find(3)
	require.True(t, ok)
	require.InDelta(t, 5.1, replayed.Pos, 1e-9, "keyframe 3 must be replayed on top of the corrected origin")

	require.Equal(t, Keyframe(3), o.State.LastProcessedInputKeyframe)
	require.Len(t, driver.finalized, 4, "one replayed frame presented in addition to the three original ticks")
	require.InDelta(t, 5.1, driver.finalized[3].Pos, 1e-9)
}

func TestReconcileAcceptsAuthorityWhenNoLocalPredictionExists(t *testing.T) {
	o, _ := newFixtureOrchestrator(RoleAutonomousProxy, 1.0)
	driveThreeTicks(o)

	// Keyframe 9 was never predicted locally (e.g. a cold join catching up).
	o.ReceiveAuthoritativeSync(9, fixtureSync{Pos: 42.0}, &fixtureAux{}, SimTimeFromSeconds(0.9))
	o.Reconcile(RoleAutonomousProxy)

	v, ok := o.Buffers.Sync.Find(9)
	require.True(t, ok)
	require.InDelta(t, 42.0, v.Pos, 1e-9)
	require.Equal(t, Keyframe(9), o.State.LastProcessedInputKeyframe)
}

func TestReconcileEvictedRollbackReseedsAsNewOrigin(t *testing.T) {
	o, _ := newFixtureOrchestrator(RoleAutonomousProxy, 1.0)
	// Drive enough ticks to push keyframe 1 out of the 8-capacity Sync
	// buffer's retained window.
	for i := 0; i < 10; i++ {
		o.Tick(TickParams{Role: RoleAutonomousProxy, LocalDeltaTimeSeconds: 0.1})
	}
	require.Greater(t, o.Buffers.Sync.TailKeyframe(), Keyframe(1), "keyframe 1 must have fallen out of the retained window")

	o.ReceiveAuthoritativeSync(1, fixtureSync{Pos: 1.23}, &fixtureAux{}, SimTimeFromSeconds(1.23))
	o.Reconcile(RoleAutonomousProxy)

	v, ok := o.Buffers.Sync.Find(1)
	require.True(t, ok)
	require.InDelta(t, 1.23, v.Pos, 1e-9)
	require.Equal(t, Keyframe(1), o.State.LastProcessedInputKeyframe)
}
