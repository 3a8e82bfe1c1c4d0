package netsim

// Test fixtures shared across this package's test files: a minimal
// deterministic 1-D "position" simulation driven by a constant per-frame
// delta time, just enough surface to exercise the engine and proxies
// without pulling in a real game.

type fixtureInput struct {
	Dt   SimTime
	Move float64
}

func (in fixtureInput) FrameDeltaTime() SimTime { return in.Dt }

type fixtureSync struct {
	Pos float64
}

func (s fixtureSync) EqualWithinTolerance(other fixtureSync) bool {
	d := s.Pos - other.Pos
	if d < 0 {
		d = -d
	}
	return d < 0.0005
}

func (s fixtureSync) Blend(other fixtureSync, t float64) fixtureSync {
	return fixtureSync{Pos: s.Pos + (other.Pos-s.Pos)*t}
}

type fixtureAux struct {
	Multiplier float64
}

func (a fixtureAux) EqualWithinTolerance(other fixtureAux) bool {
	return a.Multiplier == other.Multiplier
}

// fixtureDriver produces a constant-velocity input every frame and records
// every Sync value it was asked to finalize, in order.
type fixtureDriver struct {
	name       string
	move       float64
	frameDt    SimTime
	finalized  []fixtureSync
	initCalls  int
}

func (d *fixtureDriver) DebugName() string { return d.name }

func (d *fixtureDriver) InitSyncState(sy *fixtureSync) {
	d.initCalls++
	*sy = fixtureSync{Pos: 0}
}

func (d *fixtureDriver) ProduceInput(_ SimTime, in *fixtureInput) {
	dt := d.frameDt
	if dt == 0 {
		dt = SimTimeFromSeconds(0.1)
	}
	*in = fixtureInput{Dt: dt, Move: d.move}
}

func (d *fixtureDriver) FinalizeFrame(sy *fixtureSync) {
	d.finalized = append(d.finalized, *sy)
}

// fixtureSim advances Pos by Move * deltaSeconds * aux.Multiplier, a
// deterministic function of its three inputs only (§8 determinism law).
type fixtureSim struct{}

func (fixtureSim) Update(_ Driver[fixtureInput, fixtureSync, fixtureAux], deltaSeconds float64, in *fixtureInput, prev *fixtureSync, next *fixtureSync, aux *fixtureAux) {
	mult := aux.Multiplier
	if mult == 0 {
		mult = 1
	}
	next.Pos = prev.Pos + in.Move*deltaSeconds*mult
}

func (fixtureSim) GroupName() string { return "fixture" }

func newFixtureOrchestrator(role Role, move float64) (*Orchestrator[fixtureInput, fixtureSync, fixtureAux], *fixtureDriver) {
	driver := &fixtureDriver{name: "fixture-driver", move: move}
	o := NewOrchestrator[fixtureInput, fixtureSync, fixtureAux](driver, fixtureSim{})
	params := DefaultInitParams()
	params.InputBufferSize = 8
	params.SyncedBufferSize = 8
	params.AuxBufferSize = 8
	o.InitializeForRole(role, params)
	return o, driver
}
