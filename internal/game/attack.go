package game

import (
	"github.com/rayman-net/slideshift/internal/protocol"
	"github.com/mlange-42/ark/ecs"
)

// updateAttacksAndMovement applies each player's recorded intent for this
// tick: horizontal movement, jumping while grounded, and the charge-release
// attack state machine. All three read the same per-player intent, so they
// run as a single system over attackFilter rather than three separate
// passes over playerFilter.
func (w *World) updateAttacksAndMovement() {
	q := w.attackFilter.Query()
	for q.Next() {
		pos, vel, col, attack, grounded, player := q.Get()
		intent := w.intents[player.ID]
		w.stepMovementAndAttack(pos, vel, col, attack, grounded, intent)
	}
	q.Close()
}

// stepMovementAndAttack is the per-entity body shared by the bulk
// updateAttacksAndMovement system and StepPlayerEntity's single-entity
// prediction path: horizontal movement, jump, and the attack state
// machine for one entity given its already-recorded intent.
func (w *World) stepMovementAndAttack(pos *Position, vel *Velocity, col *Collider, attack *AttackState, grounded *Grounded, intent protocol.Intent) {
	vel.X = 0
	if intent&protocol.IntentLeft != 0 {
		vel.X = -MoveSpeed
		attack.FacingRight = false
	}
	if intent&protocol.IntentRight != 0 {
		vel.X = MoveSpeed
		attack.FacingRight = true
	}
	if intent&protocol.IntentJump != 0 && grounded.OnGround {
		vel.Y = -JumpSpeed
	}

	w.stepAttackState(attack, intent&protocol.IntentAttack != 0, pos, col)
}

// StepPlayerEntity advances exactly one player's entity through movement,
// attack, gravity, and level collision, skipping every other entity. It is
// used by gamenet's prediction Simulation, which must advance only the
// locally-predicted player rather than the whole world.
func (w *World) StepPlayerEntity(id int) {
	e, ok := w.FindPlayerEntity(id)
	if !ok {
		return
	}

	pos := w.posMap.Get(e)
	vel := w.velMap.Get(e)
	col := w.colliderMap.Get(e)
	attack := w.attackMap.Get(e)
	grounded := w.groundedMap.Get(e)

	w.stepMovementAndAttack(pos, vel, col, attack, grounded, w.intents[id])

	grav := w.gravityMap.Get(e)
	vel.Y += GravityAccel * grav.Scale

	w.integrateAndCollideOne(pos, vel, col, grounded)
}

// FindPlayerEntity returns the entity backing the given player id, if any
// player with that id has been spawned.
func (w *World) FindPlayerEntity(id int) (ecs.Entity, bool) {
	q := w.playerFilter.Query()
	defer q.Close()
	for q.Next() {
		_, player := q.Get()
		if player.ID == id {
			return q.Entity(), true
		}
	}
	return ecs.Entity{}, false
}

// PlayerEntitySnapshot is the subset of a player entity's state that
// gamenet predicts and reconciles: enough to resolve whether a client's
// locally-predicted trajectory still matches the authority's.
type PlayerEntitySnapshot struct {
	Position Position
	Velocity Velocity
	Grounded Grounded
	Attack   AttackState
}

// SnapshotPlayerEntity captures id's current predicted-state fields.
func (w *World) SnapshotPlayerEntity(id int) PlayerEntitySnapshot {
	e, ok := w.FindPlayerEntity(id)
	if !ok {
		return PlayerEntitySnapshot{}
	}
	return PlayerEntitySnapshot{
		Position: *w.posMap.Get(e),
		Velocity: *w.velMap.Get(e),
		Grounded: *w.groundedMap.Get(e),
		Attack:   *w.attackMap.Get(e),
	}
}

// RestorePlayerEntity overwrites id's predicted-state fields from a
// previously captured snapshot, the rollback half of reconciliation.
func (w *World) RestorePlayerEntity(id int, snap PlayerEntitySnapshot) {
	e, ok := w.FindPlayerEntity(id)
	if !ok {
		return
	}
	*w.posMap.Get(e) = snap.Position
	*w.velMap.Get(e) = snap.Velocity
	*w.groundedMap.Get(e) = snap.Grounded
	*w.attackMap.Get(e) = snap.Attack
}

// stepAttackState advances one entity's charge-release state machine by one
// tick. Holding the attack intent accumulates ChargeTicks up to
// MaxChargeTicks without firing; releasing it spawns a Fist whose reach
// scales with how long the hold lasted and starts the cooldown. While
// Attacking is true the intent is ignored entirely until TicksLeft reaches
// zero.
func (w *World) stepAttackState(attack *AttackState, attackHeld bool, pos *Position, col *Collider) {
	if attack.Attacking {
		attack.TicksLeft--
		if attack.TicksLeft <= 0 {
			attack.Attacking = false
			attack.TicksLeft = 0
		}
		return
	}

	if attackHeld {
		attack.Charging = true
		if attack.ChargeTicks < MaxChargeTicks {
			attack.ChargeTicks++
		}
		return
	}

	if !attack.Charging {
		return
	}

	chargeFrac := float64(attack.ChargeTicks) / float64(MaxChargeTicks)
	distance := MinFistDistance + (MaxFistDistance-MinFistDistance)*chargeFrac

	fistX := pos.X
	if attack.FacingRight {
		fistX += col.Width
	}
	w.spawnFist(fistX, pos.Y+col.Height/2, attack.FacingRight, distance, 0)

	attack.Charging = false
	attack.ChargeTicks = 0
	attack.Attacking = true
	attack.TicksLeft = AttackCooldown
}

// updateFists advances every in-flight fist by FistSpeed and removes it
// once it has travelled its full reach.
func (w *World) updateFists() {
	var spent []ecs.Entity

	q := w.fistFilter.Query()
	for q.Next() {
		pos, fist := q.Get()
		dx := FistSpeed
		if !fist.FacingRight {
			dx = -FistSpeed
		}
		pos.X += dx
		fist.Traveled += FistSpeed
		if fist.Traveled >= fist.MaxDistance {
			spent = append(spent, q.Entity())
		}
	}
	q.Close()

	for _, e := range spent {
		w.ecsWorld.RemoveEntity(e)
	}
}
