// Package gamenet wires internal/game's ECS world into internal/netsim's
// generic prediction/reconciliation core: it supplies the concrete
// Input/Sync/Aux types and the Driver/Simulation pair an
// netsim.Orchestrator needs to drive a game.World deterministically.
package gamenet

import (
	"github.com/rayman-net/slideshift/internal/game"
	"github.com/rayman-net/slideshift/internal/netsim"
	"github.com/rayman-net/slideshift/internal/protocol"
)

// PositionTolerance is the default slack allowed between a predicted and
// an authoritative player-entity position or velocity before a mismatch
// triggers rollback.
const PositionTolerance = 0.01

// Input is one player's recorded intent for a single keyframe.
type Input struct {
	PlayerID int
	Intents  protocol.Intent
	Dt       netsim.SimTime
}

// FrameDeltaTime satisfies netsim.InputCommand.
func (in Input) FrameDeltaTime() netsim.SimTime { return in.Dt }

// Sync is the predicted state of exactly one player's entity: position,
// velocity, ground contact, and attack phase. It deliberately does not
// cover the whole ECS world. An Orchestrator only ever predicts and
// rewinds the one entity its own player controls, so snapshotting (and
// restoring) the rest of the world alongside it would let one player's
// reconciliation clobber every other entity's true, server-authoritative
// state the moment more than one Orchestrator ran against the same World.
type Sync struct {
	State game.PlayerEntitySnapshot
}

// EqualWithinTolerance satisfies netsim.SyncState: position and velocity
// compare with slack, ground contact and attack phase must match exactly
// since they're discrete.
func (s Sync) EqualWithinTolerance(other Sync) bool {
	a, b := s.State, other.State
	if a.Grounded.OnGround != b.Grounded.OnGround {
		return false
	}
	if a.Attack.Attacking != b.Attack.Attacking || a.Attack.Charging != b.Attack.Charging {
		return false
	}
	if abs(a.Position.X-b.Position.X) > PositionTolerance || abs(a.Position.Y-b.Position.Y) > PositionTolerance {
		return false
	}
	if abs(a.Velocity.X-b.Velocity.X) > PositionTolerance || abs(a.Velocity.Y-b.Velocity.Y) > PositionTolerance {
		return false
	}
	return true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Aux carries nothing today; the simulation has no external driver beyond
// player input. It exists so the netsim core's Aux plumbing (its own ring
// buffer, its own slot in Update) is exercised rather than left unused.
type Aux struct{}

// EqualWithinTolerance satisfies netsim.AuxState; Aux never varies.
func (Aux) EqualWithinTolerance(Aux) bool { return true }

// Simulation adapts a single player entity's movement and attack step to
// netsim.Simulation. Unlike a whole-world rollback, it writes prev's
// fields directly onto that one entity's live ECS components, steps only
// that entity, and re-snapshots just it. Every other entity in World
// (other players, enemies, fists, the level) is left untouched, so this
// Simulation is safe to run concurrently with other players' own
// Orchestrators predicting their own entities against the same World.
type Simulation struct {
	World    *game.World
	PlayerID int
}

// GroupName satisfies netsim.Simulation.
func (Simulation) GroupName() string { return "game" }

// Update satisfies netsim.Simulation. It ignores deltaSeconds: the world
// advances in fixed per-tick steps sized by game.GravityAccel and friends,
// consistent with the teacher's fixed-tick ECS rather than a variable-step
// integrator.
func (s Simulation) Update(_ netsim.Driver[Input, Sync, Aux], _ float64, in *Input, prev *Sync, next *Sync, _ *Aux) {
	s.World.RestorePlayerEntity(s.PlayerID, prev.State)
	s.World.SetPlayerIntent(in.PlayerID, in.Intents)
	s.World.StepPlayerEntity(s.PlayerID)
	next.State = s.World.SnapshotPlayerEntity(s.PlayerID)
}

// NewOrchestrator builds a ready-to-use netsim.Orchestrator predicting
// playerID's entity in world, driven by driver, for the given role.
func NewOrchestrator(world *game.World, playerID int, driver netsim.Driver[Input, Sync, Aux], role netsim.Role, params netsim.InitParams) *netsim.Orchestrator[Input, Sync, Aux] {
	o := netsim.NewOrchestrator[Input, Sync, Aux](driver, Simulation{World: world, PlayerID: playerID})
	o.InitializeForRole(role, params)
	return o
}
