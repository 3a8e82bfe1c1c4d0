package netsim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAutonomousProxySerializeRoundTripsThroughServerReceiver(t *testing.T) {
	client, _ := newFixtureOrchestrator(RoleAutonomousProxy, 1.0)
	for i := 0; i < 3; i++ {
		client.Tick(TickParams{Role: RoleAutonomousProxy, LocalDeltaTimeSeconds: 0.1})
	}
	require.Equal(t, 3, client.DirtyCount(TargetServerRPC))

	payload, err := client.Serialize(TargetServerRPC)
	require.NoError(t, err)
	require.NotEmpty(t, payload)

	server, _ := newFixtureOrchestrator(RoleAuthority, 1.0)
	require.NoError(t, DecodeInputWindow(server, payload))

	for i := Keyframe(1); i <= 3; i++ {
		server.Tick(TickParams{Role: RoleAuthority, LocalDeltaTimeSeconds: 0.1})
	}
	require.Equal(t, Keyframe(3), server.State.LastProcessedInputKeyframe)
	last, ok := server.Buffers.Sync.Find(3)
	require.True(t, ok)
	require.InDelta(t, 0.3, last.Pos, 1e-9)
}

func TestServerReceiverSerializeRoundTripsIntoAutonomousReconcile(t *testing.T) {
	server, _ := newFixtureOrchestrator(RoleAuthority, 1.0)
	server.EnqueueReceivedInput(1, fixtureInput{Dt: SimTimeFromSeconds(0.1), Move: 1.0})
	server.Tick(TickParams{Role: RoleAuthority, LocalDeltaTimeSeconds: 0.1})
	require.Equal(t, 2, server.DirtyCount(TargetAutonomousProxy), "first serve includes the seed keyframe plus the one produced frame")

	payload, err := server.Serialize(TargetAutonomousProxy)
	require.NoError(t, err)
	require.NotEmpty(t, payload)

	client, _ := newFixtureOrchestrator(RoleAutonomousProxy, 1.0)
	client.Tick(TickParams{Role: RoleAutonomousProxy, LocalDeltaTimeSeconds: 0.1})

	require.NoError(t, DecodeAuthoritativeSync(client, payload))
	client.Reconcile(RoleAutonomousProxy)

	v, ok := client.Buffers.Sync.Find(1)
	require.True(t, ok)
	require.InDelta(t, 0.1, v.Pos, 1e-9, "server and client agree, so reconcile must be a no-op")
}

func TestReplayProxySerializeDrainsWindowOnce(t *testing.T) {
	o, _ := newFixtureOrchestrator(RoleAutonomousProxy, 1.0)
	for i := 0; i < 2; i++ {
		o.Tick(TickParams{Role: RoleAutonomousProxy, LocalDeltaTimeSeconds: 0.1})
	}
	require.Equal(t, 2, o.DirtyCount(TargetReplay))

	payload, err := o.Serialize(TargetReplay)
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	require.Equal(t, 0, o.DirtyCount(TargetReplay), "everything retained so far has been served")

	o.Tick(TickParams{Role: RoleAutonomousProxy, LocalDeltaTimeSeconds: 0.1})
	require.Equal(t, 1, o.DirtyCount(TargetReplay))
}

func TestSerializeUnknownTargetPanics(t *testing.T) {
	o, _ := newFixtureOrchestrator(RoleAuthority, 1.0)
	require.Panics(t, func() {
		_, _ = o.Serialize(ReplicationTarget(255))
	})
}
