package netsim

import (
	"bytes"
	"encoding/gob"
)

// AutonomousPredictorProxy runs on the locally controlled client (Role
// AutonomousProxy). It produces local input immediately, predicts ahead of
// the authority, and rolls back/replays when the authority disagrees.
type AutonomousPredictorProxy[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]] struct {
	unacked map[Keyframe]struct{}

	// resendWindow bounds how many trailing unacked inputs Serialize emits.
	resendWindow int
}

func (p *AutonomousPredictorProxy[In, Sy, Au]) PreSimTick(o *Orchestrator[In, Sy, Au], params TickParams) {
	in := o.Buffers.Input.WriteNext()
	o.Driver.ProduceInput(o.State.TotalProcessedSimulationTime, in)
	o.State.RemainingAllowedSimulationTime += SimTimeFromSeconds(params.LocalDeltaTimeSeconds)
	o.State.MaxAllowedInputKeyframe = o.Buffers.Input.HeadKeyframe()
}

// PostSimTick records the newly produced input keyframe as unacknowledged
// and drops any that fell out of the Input buffer's retained window.
func (p *AutonomousPredictorProxy[In, Sy, Au]) PostSimTick(o *Orchestrator[In, Sy, Au], _ TickParams) {
	if !o.Buffers.Input.Written() {
		return
	}
	p.unacked[o.Buffers.Input.HeadKeyframe()] = struct{}{}
	tail := o.Buffers.Input.TailKeyframe()
	for k := range p.unacked {
		if k < tail {
			delete(p.unacked, k)
		}
	}
}

// Ack marks input keyframes up to and including k as acknowledged by the
// authority, called by the host's RPC dispatcher when ack data arrives.
func (p *AutonomousPredictorProxy[In, Sy, Au]) Ack(k Keyframe) {
	for uk := range p.unacked {
		if uk <= k {
			delete(p.unacked, uk)
		}
	}
}

// Reconcile implements spec §4.E's core contract: compare the pending
// authoritative Sync (and Aux) against local prediction; on mismatch,
// rewind to the authoritative value and replay the retained inputs (with
// the dependents' rollback steps) before returning.
func (p *AutonomousPredictorProxy[In, Sy, Au]) Reconcile(o *Orchestrator[In, Sy, Au]) {
	upd := o.pendingAuth
	if upd == nil {
		return
	}
	o.pendingAuth = nil
	K := upd.keyframe

	if o.Buffers.Sync.Written() && K < o.Buffers.Sync.TailKeyframe() {
		// Rollback to evicted keyframe: unrecoverable prediction failure
		// (§7). Drop prediction and reseed from the authoritative state as
		// a new origin.
		o.Logger.Warn("reconcile target evicted from sync buffer; reseeding as new origin", "keyframe", K)
		*o.Buffers.Sync.ResetNextHeadKeyframe(K) = upd.sync
		*o.Buffers.Aux.ResetNextHeadKeyframe(K) = upd.aux
		o.State.SetTotalProcessed(upd.simTime, K)
		p.unacked = make(map[Keyframe]struct{})
		o.propagateDependentRollback(0, K, true)
		return
	}

	predicted, ok := o.Buffers.Sync.Find(K)
	if !ok {
		// No prediction to compare against (cold join or long gap): just
		// accept the authoritative state and move on.
		*o.Buffers.Sync.ResetNextHeadKeyframe(K) = upd.sync
		*o.Buffers.Aux.ResetNextHeadKeyframe(K) = upd.aux
		o.State.SetTotalProcessed(upd.simTime, K)
		return
	}

	auxMatches := true
	if predictedAux, ok := o.Buffers.Aux.Find(K); ok {
		auxMatches = (*predictedAux).EqualWithinTolerance(upd.aux)
	}

	if (*predicted).EqualWithinTolerance(upd.sync) && auxMatches {
		// Idempotent reconcile: prediction was correct, no buffer churn.
		return
	}

	replayTo := o.Buffers.Input.HeadKeyframe()
	o.Buffers.Sync.ResetNextHeadKeyframe(K - 1)
	*o.Buffers.Sync.WriteNext() = upd.sync
	o.Buffers.Aux.ResetNextHeadKeyframe(K - 1)
	*o.Buffers.Aux.WriteNext() = upd.aux
	o.State.SetTotalProcessed(upd.simTime, K)

	o.replayAndPropagate(K, replayTo)
}

// Serialize emits a window of recent unacknowledged Input Commands on the
// ServerRPC channel.
func (p *AutonomousPredictorProxy[In, Sy, Au]) Serialize(o *Orchestrator[In, Sy, Au], target ReplicationTarget) ([]byte, error) {
	if target != TargetServerRPC {
		return nil, unknownTargetError(target, "autonomous-predictor")
	}
	window := p.resendWindow
	if window <= 0 {
		window = 8
	}
	head := o.Buffers.Input.HeadKeyframe()
	var start Keyframe
	if int(head) > window {
		start = head - Keyframe(window) + 1
	}
	if tail := o.Buffers.Input.TailKeyframe(); start < tail {
		start = tail
	}
	msg := inputWireMsg[In]{}
	for k := start; k <= head; k++ {
		if in, ok := o.Buffers.Input.Find(k); ok {
			if _, unacked := p.unacked[k]; unacked {
				msg.Keyframes = append(msg.Keyframes, k)
				msg.Inputs = append(msg.Inputs, *in)
			}
		}
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *AutonomousPredictorProxy[In, Sy, Au]) DirtyCount(_ *Orchestrator[In, Sy, Au], target ReplicationTarget) int {
	if target != TargetServerRPC {
		return 0
	}
	return len(p.unacked)
}

// inputWireMsg is the payload AutonomousPredictorProxy.Serialize emits for
// the ServerRPC target.
type inputWireMsg[In any] struct {
	Keyframes []Keyframe
	Inputs    []In
}

// DecodeInputWindow decodes a payload produced by
// AutonomousPredictorProxy.Serialize and feeds each frame into the
// server-receiver proxy's pending queue.
func DecodeInputWindow[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]](o *Orchestrator[In, Sy, Au], data []byte) error {
	var msg inputWireMsg[In]
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&msg); err != nil {
		return err
	}
	for i, k := range msg.Keyframes {
		o.proxies.serverReceiver.EnqueueReceivedInput(k, msg.Inputs[i])
	}
	return nil
}
