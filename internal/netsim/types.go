// Package netsim implements the generic networked-simulation core: a
// keyframed ring buffer, a tick engine, and the replication proxies that
// drive client-authoritative prediction with server reconciliation.
//
// The package is deliberately agnostic of any particular game: callers
// parameterize it with their own Input/Sync/Aux value types and an Update
// function, following the StateCaps / ReplicationCaps split described in
// the design notes rather than one deep per-game instantiation.
package netsim

// Keyframe identifies a discrete simulation step. It is monotonically
// increasing; keyframe 0 is reserved as the seed slot.
type Keyframe uint32

// InputCommand is the capability an Input type must provide: a positive
// simulation-time delta for the frame it represents.
type InputCommand interface {
	FrameDeltaTime() SimTime
}

// SyncState is the capability a Sync type must provide for reconciliation:
// an equality check with a caller-chosen tolerance baked in.
type SyncState[Sy any] interface {
	EqualWithinTolerance(other Sy) bool
}

// AuxState is the capability an Aux type must provide for reconciliation.
type AuxState[Au any] interface {
	EqualWithinTolerance(other Au) bool
}

// Blendable is an optional capability a Sync type may implement to support
// linear interpolation in ModeInterpolate. t is clamped to [0,1], 0
// returning a value equal to the receiver and 1 a value equal to other.
// Types that don't implement it are rendered at the newer of the two
// buffered snapshots instead of blended.
type Blendable[Sy any] interface {
	Blend(other Sy, t float64) Sy
}

// Role selects which proxy drives PreSimTick/PostSimTick/Reconcile for a
// tick or reconcile call.
type Role uint8

const (
	RoleAuthority Role = iota
	RoleAutonomousProxy
	RoleSimulatedProxy
)

func (r Role) String() string {
	switch r {
	case RoleAuthority:
		return "authority"
	case RoleAutonomousProxy:
		return "autonomous-proxy"
	case RoleSimulatedProxy:
		return "simulated-proxy"
	default:
		return "unknown-role"
	}
}

// ReplicationTarget enumerates the five serialize/dirty-count destinations.
type ReplicationTarget uint8

const (
	TargetServerRPC ReplicationTarget = iota
	TargetAutonomousProxy
	TargetSimulatedProxy
	TargetReplay
	TargetDebug
)

func (t ReplicationTarget) String() string {
	switch t {
	case TargetServerRPC:
		return "server-rpc"
	case TargetAutonomousProxy:
		return "autonomous-proxy"
	case TargetSimulatedProxy:
		return "simulated-proxy"
	case TargetReplay:
		return "replay"
	case TargetDebug:
		return "debug"
	default:
		return "unknown-target"
	}
}

// SimulatedUpdateMode selects how a SimulatedObserverProxy advances a
// remote entity toward received Sync states.
type SimulatedUpdateMode uint8

const (
	ModeInterpolate SimulatedUpdateMode = iota
	ModeExtrapolate
)

// TickParams parameterizes one Engine.Tick / Orchestrator.Tick call.
type TickParams struct {
	Role                  Role
	LocalDeltaTimeSeconds float64
}

// InitParams sizes every buffer at InitializeForRole, in keyframes.
type InitParams struct {
	InputBufferSize    int
	SyncedBufferSize   int
	AuxBufferSize      int
	DebugBufferSize    int
	HistoricBufferSize int
	DebugEnabled       bool
}

// DefaultInitParams mirrors the typical values from spec §6.
func DefaultInitParams() InitParams {
	return InitParams{
		InputBufferSize:    32,
		SyncedBufferSize:   32,
		AuxBufferSize:      32,
		DebugBufferSize:    64,
		HistoricBufferSize: 256,
	}
}

// DebugFrame is a per-frame diagnostic record (§3), present only when
// debug capture is enabled.
type DebugFrame struct {
	LocalDeltaTime            SimTime
	GlobalFrameCounter        uint64
	ProcessedKeyframes        []Keyframe
	RemainingSimulationTime   SimTime
	LastSentInputKeyframe     Keyframe
	LastReceivedInputKeyframe Keyframe
}
