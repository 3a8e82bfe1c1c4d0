package netsim

import (
	syncbuf "github.com/rayman-net/slideshift/internal/sync"
)

// timedSync pairs a received Sync with the sim time it arrived at, so the
// interpolation buffer can place "now - interpDelay" between two entries.
type timedSync[Sy any] struct {
	value Sy
	at    SimTime
}

// SimulatedObserverProxy runs on a client observing another peer's entity
// (Role SimulatedProxy). It never produces authoritative state; it only
// advances a local approximation toward whatever Sync the network last
// delivered, either by interpolating or by extrapolating forward.
type SimulatedObserverProxy[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]] struct {
	mode        SimulatedUpdateMode
	interpDelay SimTime

	haveReceived bool
	lastReceived Sy

	buf *syncbuf.SnapshotBuffer[timedSync[Sy]]
}

// SetSimulatedUpdateMode selects interpolate vs. extrapolate.
func (p *SimulatedObserverProxy[In, Sy, Au]) SetSimulatedUpdateMode(m SimulatedUpdateMode) {
	p.mode = m
}

// GetSimulatedUpdateMode reports the active mode.
func (p *SimulatedObserverProxy[In, Sy, Au]) GetSimulatedUpdateMode() SimulatedUpdateMode {
	return p.mode
}

// SetInterpolationDelay configures the blend-delay window used in
// ModeInterpolate: the renderer tracks a point in time this far behind the
// newest received Sync, so there is always a bracketing pair to blend
// between even if the network jitters.
func (p *SimulatedObserverProxy[In, Sy, Au]) SetInterpolationDelay(d SimTime) {
	p.interpDelay = d
}

// PreSimTick advances toward the latest received Sync. Both modes drive
// the engine's input consumption loop with a synthesized input — the
// driver decides what that input actually contains (e.g. "hold last known
// intent") by querying Orchestrator.SimulatedUpdateMode. The
// actual smoothed position a renderer should use comes from Observed, not
// from this tick's Sync output.
func (p *SimulatedObserverProxy[In, Sy, Au]) PreSimTick(o *Orchestrator[In, Sy, Au], params TickParams) {
	o.State.RemainingAllowedSimulationTime += SimTimeFromSeconds(params.LocalDeltaTimeSeconds)
	in := o.Buffers.Input.WriteNext()
	o.Driver.ProduceInput(o.State.TotalProcessedSimulationTime, in)
	o.State.MaxAllowedInputKeyframe = o.Buffers.Input.HeadKeyframe()
}

// PostSimTick has no outbound obligations: observers never replicate.
func (p *SimulatedObserverProxy[In, Sy, Au]) PostSimTick(*Orchestrator[In, Sy, Au], TickParams) {}

// Reconcile absorbs a newly received Sync into smoothing state, and in
// extrapolate mode schedules a dependent rollback if the local
// extrapolation disagreed materially with what arrived.
func (p *SimulatedObserverProxy[In, Sy, Au]) Reconcile(o *Orchestrator[In, Sy, Au]) {
	upd := o.pendingAuth
	if upd == nil {
		return
	}
	o.pendingAuth = nil

	disagreed := false
	if p.mode == ModeExtrapolate {
		if predicted, ok := o.Buffers.Sync.Find(upd.keyframe); ok {
			disagreed = !(*predicted).EqualWithinTolerance(upd.sync)
		}
	}

	p.haveReceived = true
	p.lastReceived = upd.sync

	if p.buf == nil {
		p.buf = syncbuf.NewSnapshotBuffer[timedSync[Sy]](2)
	}
	p.buf.Add(timedSync[Sy]{value: upd.sync, at: upd.simTime})

	if disagreed {
		o.propagateDependentRollback(upd.simTime, upd.keyframe, true)
	}
}

// Observed returns the value a renderer should display at sim time now: in
// ModeInterpolate, a blend between the two most recently received Sync
// values placed interpDelay behind now (or the newest received value if Sy
// doesn't implement Blendable); in ModeExtrapolate, the newest received
// value, since the predicted trajectory itself already carries the
// extrapolation forward. Returns false until at least one Sync has been
// received.
func (p *SimulatedObserverProxy[In, Sy, Au]) Observed(now SimTime) (Sy, bool) {
	var zero Sy
	if !p.haveReceived {
		return zero, false
	}
	if p.mode == ModeExtrapolate || p.buf == nil {
		return p.lastReceived, true
	}

	older, newer := p.buf.Get()
	if older == nil || newer == nil {
		return p.lastReceived, true
	}

	span := newer.at - older.at
	if span <= 0 {
		return newer.value, true
	}

	renderAt := now - p.interpDelay
	t := float64(renderAt-older.at) / float64(span)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	if blendable, ok := any(older.value).(Blendable[Sy]); ok {
		return blendable.Blend(newer.value, t), true
	}
	return newer.value, true
}
