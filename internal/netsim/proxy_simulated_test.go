package netsim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimulatedObserverObservedReportsNotReceivedBeforeFirstSync(t *testing.T) {
	o, _ := newFixtureOrchestrator(RoleSimulatedProxy, 0)

	_, ok := o.ObservedSync()
	require.False(t, ok, "no Sync received yet")
}

func TestSimulatedObserverInterpolateBlendsBetweenTwoSyncs(t *testing.T) {
	o, _ := newFixtureOrchestrator(RoleSimulatedProxy, 0)
	o.SetSimulatedUpdateMode(ModeInterpolate)
	o.SetSimulatedInterpolationDelay(SimTimeFromSeconds(0.1))

	o.ReceiveAuthoritativeSync(1, fixtureSync{Pos: 0}, nil, SimTimeFromSeconds(0))
	o.Reconcile(RoleSimulatedProxy)
	o.ReceiveAuthoritativeSync(2, fixtureSync{Pos: 10}, nil, SimTimeFromSeconds(0.2))
	o.Reconcile(RoleSimulatedProxy)

	o.State.TotalProcessedSimulationTime = SimTimeFromSeconds(0.2)
	observed, ok := o.ObservedSync()
	require.True(t, ok)
	// render time = 0.2 - 0.1 = 0.1, halfway between the two snapshots at 0 and 0.2
	require.InDelta(t, 5.0, observed.Pos, 1e-6)
}

func TestSimulatedObserverInterpolateClampsOutsideBracket(t *testing.T) {
	o, _ := newFixtureOrchestrator(RoleSimulatedProxy, 0)
	o.SetSimulatedUpdateMode(ModeInterpolate)
	o.SetSimulatedInterpolationDelay(SimTimeFromSeconds(0.1))

	o.ReceiveAuthoritativeSync(1, fixtureSync{Pos: 0}, nil, SimTimeFromSeconds(0))
	o.Reconcile(RoleSimulatedProxy)
	o.ReceiveAuthoritativeSync(2, fixtureSync{Pos: 10}, nil, SimTimeFromSeconds(0.2))
	o.Reconcile(RoleSimulatedProxy)

	// render time far in the past: clamps to the older snapshot
	o.State.TotalProcessedSimulationTime = SimTimeFromSeconds(0)
	observed, ok := o.ObservedSync()
	require.True(t, ok)
	require.InDelta(t, 0.0, observed.Pos, 1e-6)

	// render time far in the future: clamps to the newer snapshot
	o.State.TotalProcessedSimulationTime = SimTimeFromSeconds(1)
	observed, ok = o.ObservedSync()
	require.True(t, ok)
	require.InDelta(t, 10.0, observed.Pos, 1e-6)
}

func TestSimulatedObserverExtrapolateReturnsLatestReceived(t *testing.T) {
	o, _ := newFixtureOrchestrator(RoleSimulatedProxy, 0)
	o.SetSimulatedUpdateMode(ModeExtrapolate)

	o.ReceiveAuthoritativeSync(1, fixtureSync{Pos: 3}, nil, SimTimeFromSeconds(0))
	o.Reconcile(RoleSimulatedProxy)
	o.ReceiveAuthoritativeSync(2, fixtureSync{Pos: 7}, nil, SimTimeFromSeconds(0.1))
	o.Reconcile(RoleSimulatedProxy)

	observed, ok := o.ObservedSync()
	require.True(t, ok)
	require.InDelta(t, 7.0, observed.Pos, 1e-6)
}
