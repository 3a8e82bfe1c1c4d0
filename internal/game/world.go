package game

import (
	"github.com/rayman-net/slideshift/internal/collision"
	"github.com/rayman-net/slideshift/internal/protocol"
	"github.com/mlange-42/ark/ecs"
)

// MoveSpeed is the horizontal velocity applied while Left/Right is held.
const MoveSpeed = 0.6

// JumpSpeed is the vertical velocity applied on a grounded jump.
const JumpSpeed = 1.8

// GravityAccel is the per-tick acceleration applied to entities with a
// Gravity component.
const GravityAccel = 0.18

// World holds all ECS state for one simulation instance: the ark world
// itself, one component mapper per component type, the filters used by
// both the tick systems below and by Snapshot/Restore, and the per-player
// input intents collected since the last Update.
type World struct {
	ecsWorld ecs.World

	Tick uint64

	posMap      ecs.Map1[Position]
	velMap      ecs.Map1[Velocity]
	colliderMap ecs.Map1[Collider]
	spriteMap   ecs.Map1[Sprite]
	playerMap   ecs.Map1[Player]
	healthMap   ecs.Map1[Health]
	damageMap   ecs.Map1[Damage]
	gravityMap  ecs.Map1[Gravity]
	groundedMap ecs.Map1[Grounded]
	attackMap   ecs.Map1[AttackState]
	fistMap     ecs.Map1[Fist]

	physicsFilter    *ecs.Filter4[Position, Velocity, Collider, Grounded]
	playerFilter     *ecs.Filter2[Position, Player]
	attackFilter     *ecs.Filter6[Position, Velocity, Collider, AttackState, Grounded, Player]
	fistFilter       *ecs.Filter2[Position, Fist]
	gravityFilter    *ecs.Filter2[Velocity, Gravity]
	damageFilter     *ecs.Filter2[Position, Damage]
	healthFilter     *ecs.Filter3[Position, Collider, Health]
	renderableFilter *ecs.Filter2[Position, Sprite]

	level         *collision.TileMap
	intents       map[int]protocol.Intent
	playerEntities map[ecs.Entity]bool
}

// NewWorld creates an empty world with a demo level loaded.
func NewWorld() *World {
	w := &World{
		ecsWorld:       ecs.NewWorld(),
		intents:        make(map[int]protocol.Intent),
		playerEntities: make(map[ecs.Entity]bool),
		level:          DemoLevel(),
	}

	w.posMap = ecs.NewMap1[Position](&w.ecsWorld)
	w.velMap = ecs.NewMap1[Velocity](&w.ecsWorld)
	w.colliderMap = ecs.NewMap1[Collider](&w.ecsWorld)
	w.spriteMap = ecs.NewMap1[Sprite](&w.ecsWorld)
	w.playerMap = ecs.NewMap1[Player](&w.ecsWorld)
	w.healthMap = ecs.NewMap1[Health](&w.ecsWorld)
	w.damageMap = ecs.NewMap1[Damage](&w.ecsWorld)
	w.gravityMap = ecs.NewMap1[Gravity](&w.ecsWorld)
	w.groundedMap = ecs.NewMap1[Grounded](&w.ecsWorld)
	w.attackMap = ecs.NewMap1[AttackState](&w.ecsWorld)
	w.fistMap = ecs.NewMap1[Fist](&w.ecsWorld)

	w.physicsFilter = ecs.NewFilter4[Position, Velocity, Collider, Grounded](&w.ecsWorld)
	w.playerFilter = ecs.NewFilter2[Position, Player](&w.ecsWorld)
	w.attackFilter = ecs.NewFilter6[Position, Velocity, Collider, AttackState, Grounded, Player](&w.ecsWorld)
	w.fistFilter = ecs.NewFilter2[Position, Fist](&w.ecsWorld)
	w.gravityFilter = ecs.NewFilter2[Velocity, Gravity](&w.ecsWorld)
	w.damageFilter = ecs.NewFilter2[Position, Damage](&w.ecsWorld)
	w.healthFilter = ecs.NewFilter3[Position, Collider, Health](&w.ecsWorld)
	w.renderableFilter = ecs.NewFilter2[Position, Sprite](&w.ecsWorld)

	return w
}

// SetLevel replaces the active tilemap (e.g. to size it to a viewport).
func (w *World) SetLevel(tm *collision.TileMap) { w.level = tm }

// SetTileMap is an alias for SetLevel kept for the Gio client, which names
// the same operation after the tile grid it edits rather than the level
// concept.
func (w *World) SetTileMap(tm *collision.TileMap) { w.SetLevel(tm) }

// Level returns the active tilemap.
func (w *World) Level() *collision.TileMap { return w.level }

// GetPlayerPosition returns the position of the first player entity found,
// for single-player callers (the Gio client) that don't need to name a
// specific player id.
func (w *World) GetPlayerPosition() (x, y float64, ok bool) {
	q := w.playerFilter.Query()
	defer q.Close()
	if q.Next() {
		pos, _ := q.Get()
		return pos.X, pos.Y, true
	}
	return 0, 0, false
}

// SetPlayerIntent records the input bitmask active for player id for the
// next Update call. It overwrites whatever was recorded for that player
// since the last Update, matching one InputFrame per tick.
func (w *World) SetPlayerIntent(id int, intent protocol.Intent) {
	w.intents[id] = intent
}

// SpawnPlayer creates a player-controlled entity with physics, a collider,
// health, and an idle attack state.
func (w *World) SpawnPlayer(id int, name string, x, y float64) ecs.Entity {
	e := w.ecsWorld.NewEntity()
	w.posMap.Add(e, &Position{X: x, Y: y})
	w.velMap.Add(e, &Velocity{})
	w.colliderMap.Add(e, &Collider{Width: 1, Height: 2})
	w.spriteMap.Add(e, &Sprite{ID: "player", Color: 0x4080ff})
	w.playerMap.Add(e, &Player{ID: id, Name: name})
	w.healthMap.Add(e, &Health{Current: 100, Max: 100})
	w.gravityMap.Add(e, &Gravity{Scale: 1})
	w.groundedMap.Add(e, &Grounded{})
	w.attackMap.Add(e, &AttackState{})
	w.playerEntities[e] = true
	return e
}

// SpawnEnemy creates an enemy entity. Recognized types: "slime" (ground
// patroller) and anything else falls back to a stationary dummy.
func (w *World) SpawnEnemy(enemyType string, x, y float64) ecs.Entity {
	e := w.ecsWorld.NewEntity()
	w.posMap.Add(e, &Position{X: x, Y: y})

	switch enemyType {
	case "slime":
		w.velMap.Add(e, &Velocity{X: -0.15})
		w.colliderMap.Add(e, &Collider{Width: 1, Height: 0.8})
		w.spriteMap.Add(e, &Sprite{ID: "slime", Color: 0x40c040})
		w.healthMap.Add(e, &Health{Current: 20, Max: 20})
		w.damageMap.Add(e, &Damage{Amount: 10})
		w.gravityMap.Add(e, &Gravity{Scale: 1})
		w.groundedMap.Add(e, &Grounded{})
	default:
		w.velMap.Add(e, &Velocity{})
		w.colliderMap.Add(e, &Collider{Width: 1, Height: 1})
		w.spriteMap.Add(e, &Sprite{ID: enemyType, Color: 0xc04040})
		w.healthMap.Add(e, &Health{Current: 10, Max: 10})
		w.damageMap.Add(e, &Damage{Amount: 5})
		w.gravityMap.Add(e, &Gravity{Scale: 1})
		w.groundedMap.Add(e, &Grounded{})
	}
	return e
}

func (w *World) spawnFist(x, y float64, facingRight bool, maxDistance float64, ownerID int) {
	e := w.ecsWorld.NewEntity()
	w.posMap.Add(e, &Position{X: x, Y: y})
	w.fistMap.Add(e, &Fist{OwnerID: ownerID, FacingRight: facingRight, MaxDistance: maxDistance})

	spriteID := "fist_left"
	if facingRight {
		spriteID = "fist_right"
	}
	w.spriteMap.Add(e, &Sprite{ID: spriteID, Color: 0xffff00})
}

// Renderable is a lightweight, render-package-agnostic view of one
// drawable entity: its world position and the sprite id to look up in
// whatever atlas the active renderer is using.
type Renderable struct {
	X, Y     float64
	SpriteID string
}

// GetRenderables returns one Renderable per entity that has both a
// Position and a Sprite component.
func (w *World) GetRenderables() []Renderable {
	var out []Renderable
	q := w.renderableFilter.Query()
	for q.Next() {
		pos, sprite := q.Get()
		out = append(out, Renderable{X: pos.X, Y: pos.Y, SpriteID: sprite.ID})
	}
	q.Close()
	return out
}

// Update advances the world by exactly one deterministic tick: input is
// applied, attacks and fists are resolved, gravity and motion integrate,
// collisions resolve against the level, damage is applied, and anything
// left dead is removed.
func (w *World) Update() {
	w.Tick++
	w.updateAttacksAndMovement()
	w.updateFists()
	w.applyGravity(true)
	w.integrateAndCollide(true)
	w.applyDamage()
	w.cleanupDead()
}

// StepEnvironment advances everything in a tick except player movement and
// attack: fist travel, enemy gravity and collision, damage, and cleanup.
// It is the authoritative server's per-tick counterpart to a netsim
// Authority orchestrator's per-session StepPlayerEntity calls, which
// already cover each connected player's own movement and attack: running
// Update's player-inclusive gravity/collision pass here too would step
// every player entity twice in the same tick.
func (w *World) StepEnvironment() {
	w.Tick++
	w.updateFists()
	w.applyGravity(false)
	w.integrateAndCollide(false)
	w.applyDamage()
	w.cleanupDead()
}

func (w *World) applyGravity(includePlayers bool) {
	q := w.gravityFilter.Query()
	for q.Next() {
		if !includePlayers && w.playerEntities[q.Entity()] {
			continue
		}
		vel, grav := q.Get()
		vel.Y += GravityAccel * grav.Scale
	}
	q.Close()
}

// integrateAndCollide moves every physics entity by its velocity and
// resolves the result against the level's solid tiles, a coarse
// tile-sampling resolution rather than a full swept AABB sweep.
func (w *World) integrateAndCollide(includePlayers bool) {
	q := w.physicsFilter.Query()
	for q.Next() {
		if !includePlayers && w.playerEntities[q.Entity()] {
			continue
		}
		pos, vel, col, grounded := q.Get()
		w.integrateAndCollideOne(pos, vel, col, grounded)
	}
	q.Close()
}

// integrateAndCollideOne is integrateAndCollide's per-entity body, reused
// by StepPlayerEntity so a single predicted entity can be integrated
// without iterating physicsFilter's full membership.
func (w *World) integrateAndCollideOne(pos *Position, vel *Velocity, col *Collider, grounded *Grounded) {
	nextX := pos.X + vel.X
	if w.collidesSolidAt(nextX, pos.Y, col) {
		vel.X = 0
	} else {
		pos.X = nextX
	}

	nextY := pos.Y + vel.Y
	if w.collidesSolidAt(pos.X, nextY, col) {
		grounded.OnGround = vel.Y >= 0
		vel.Y = 0
	} else {
		pos.Y = nextY
		grounded.OnGround = false
	}
}

func (w *World) collidesSolidAt(x, y float64, col *Collider) bool {
	if w.level == nil {
		return false
	}
	box := collision.NewAABB(x+col.OffsetX, y+col.OffsetY, col.Width, col.Height)
	left := int(box.X)
	right := int(box.X + box.Width)
	top := int(box.Y)
	bottom := int(box.Y + box.Height)
	for ty := top; ty <= bottom; ty++ {
		for tx := left; tx <= right; tx++ {
			if w.level.IsSolid(tx, ty) {
				return true
			}
		}
	}
	return false
}

func (w *World) applyDamage() {
	dq := w.damageFilter.Query()
	for dq.Next() {
		dpos, dmg := dq.Get()
		dbox := collision.NewAABB(dpos.X, dpos.Y, 1, 1)

		hq := w.healthFilter.Query()
		for hq.Next() {
			hpos, hcol, health := hq.Get()
			hbox := collision.NewAABB(hpos.X+hcol.OffsetX, hpos.Y+hcol.OffsetY, hcol.Width, hcol.Height)
			if dbox.Overlaps(hbox) {
				health.Current -= dmg.Amount
			}
		}
		hq.Close()
	}
	dq.Close()
}

func (w *World) cleanupDead() {
	var dead []ecs.Entity
	q := w.healthFilter.Query()
	for q.Next() {
		entity := q.Entity()
		_, _, health := q.Get()
		if health.Current <= 0 {
			dead = append(dead, entity)
		}
	}
	q.Close()
	for _, e := range dead {
		w.ecsWorld.RemoveEntity(e)
	}
}
