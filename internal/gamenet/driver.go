package gamenet

import (
	"github.com/rayman-net/slideshift/internal/game"
	"github.com/rayman-net/slideshift/internal/netsim"
	"github.com/rayman-net/slideshift/internal/protocol"
)

// HostDriver is the concrete netsim.Driver used by both client and server:
// it seeds Sync from the world's current snapshot, asks a pluggable
// intent source for the active player's input each frame, and forwards
// finalized frames to a pluggable presentation callback.
type HostDriver struct {
	Name string

	World *game.World

	// PlayerID is whose intent this driver produces input for and whose
	// entity seeds Sync. The server sets it to the session's player.
	PlayerID int

	// IntentSource returns the current input bitmask to stamp into the
	// next produced Input. Required only on driver instances that call
	// ProduceInput (autonomous-proxy role).
	IntentSource func() protocol.Intent

	// OnFinalize is invoked with every finalized Sync state, e.g. to hand
	// it to a renderer or to a broadcast queue. Optional.
	OnFinalize func(sy *Sync)

	// TickDelta is the fixed per-frame delta stamped into produced input.
	TickDelta netsim.SimTime
}

// DebugName satisfies netsim.Driver.
func (d *HostDriver) DebugName() string { return d.Name }

// InitSyncState satisfies netsim.Driver: seed from PlayerID's entity's
// current state, used both for the very first tick and for
// continuity-break reseeding.
func (d *HostDriver) InitSyncState(sy *Sync) {
	sy.State = d.World.SnapshotPlayerEntity(d.PlayerID)
}

// ProduceInput satisfies netsim.Driver.
func (d *HostDriver) ProduceInput(_ netsim.SimTime, in *Input) {
	in.PlayerID = d.PlayerID
	in.Dt = d.TickDelta
	if d.IntentSource != nil {
		in.Intents = d.IntentSource()
	}
}

// FinalizeFrame satisfies netsim.Driver.
func (d *HostDriver) FinalizeFrame(sy *Sync) {
	if d.OnFinalize != nil {
		d.OnFinalize(sy)
	}
}
