package netsim

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// pendingInput is a received-but-not-yet-consumed client input, keyed by
// the keyframe the client claims it belongs to.
type pendingInput[In InputCommand] struct {
	cmd In
}

// ServerReceiverProxy runs on the authority (Role Authority). It has no
// predictor of its own: client inputs arrive over the network and are
// drained into the Input buffer strictly in keyframe order.
type ServerReceiverProxy[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]] struct {
	pending map[Keyframe]pendingInput[In]

	servedSync map[ReplicationTarget]Keyframe
}

// EnqueueReceivedInput is called by the host's RPC dispatcher whenever a
// client input frame arrives over the network, possibly out of order.
func (p *ServerReceiverProxy[In, Sy, Au]) EnqueueReceivedInput(k Keyframe, cmd In) {
	p.pending[k] = pendingInput[In]{cmd: cmd}
}

func (p *ServerReceiverProxy[In, Sy, Au]) PreSimTick(o *Orchestrator[In, Sy, Au], _ TickParams) {
	var budget SimTime
	for {
		next := o.Buffers.Input.HeadKeyframe() + 1
		pi, ok := p.pending[next]
		if !ok {
			break
		}
		*o.Buffers.Input.WriteNext() = pi.cmd
		delete(p.pending, next)
		budget += pi.cmd.FrameDeltaTime()
	}
	o.State.MaxAllowedInputKeyframe = o.Buffers.Input.HeadKeyframe()
	o.State.RemainingAllowedSimulationTime += budget
}

// PostSimTick has no bookkeeping of its own: DirtyCount and Serialize both
// derive what's owed to each replication target directly from servedSync
// versus the Sync buffer's head keyframe.
func (p *ServerReceiverProxy[In, Sy, Au]) PostSimTick(*Orchestrator[In, Sy, Au], TickParams) {}

// Reconcile is a no-op on the authority in normal operation: the authority
// never second-guesses its own state.
func (p *ServerReceiverProxy[In, Sy, Au]) Reconcile(*Orchestrator[In, Sy, Au]) {}

// Serialize emits authoritative Sync[head] (and the Aux value valid there)
// to the AutonomousProxy or SimulatedProxy replication targets.
func (p *ServerReceiverProxy[In, Sy, Au]) Serialize(o *Orchestrator[In, Sy, Au], target ReplicationTarget) ([]byte, error) {
	if target != TargetAutonomousProxy && target != TargetSimulatedProxy {
		return nil, fmt.Errorf("%w: %s is not served by the server-receiver proxy", ErrUnknownTarget, target)
	}
	head := o.Buffers.Sync.HeadKeyframe()
	sy, ok := o.Buffers.Sync.Find(head)
	if !ok {
		return nil, nil
	}
	aux := o.auxAt(head)
	msg := authoritativeWireMsg[Sy, Au]{
		Keyframe: head,
		Sync:     *sy,
		Aux:      *aux,
		SimTime:  o.State.TotalProcessedSimulationTime,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&msg); err != nil {
		return nil, err
	}
	if p.servedSync == nil {
		p.servedSync = make(map[ReplicationTarget]Keyframe)
	}
	p.servedSync[target] = head
	return buf.Bytes(), nil
}

func (p *ServerReceiverProxy[In, Sy, Au]) DirtyCount(o *Orchestrator[In, Sy, Au], target ReplicationTarget) int {
	if !o.Buffers.Sync.Written() {
		return 0
	}
	head := o.Buffers.Sync.HeadKeyframe()
	last, known := p.servedSync[target]
	if !known {
		return int(head-o.Buffers.Sync.TailKeyframe()) + 1
	}
	if head <= last {
		return 0
	}
	return int(head - last)
}

// authoritativeWireMsg is the payload ServerReceiverProxy.Serialize emits
// and the client-side proxies decode via DecodeAuthoritativeSync.
type authoritativeWireMsg[Sy any, Au any] struct {
	Keyframe Keyframe
	Sync     Sy
	Aux      Au
	SimTime  SimTime
}

// DecodeAuthoritativeSync decodes a payload produced by
// ServerReceiverProxy.Serialize and feeds it into the orchestrator's
// pending-authoritative slot for the next Reconcile call.
func DecodeAuthoritativeSync[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]](o *Orchestrator[In, Sy, Au], data []byte) error {
	var msg authoritativeWireMsg[Sy, Au]
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&msg); err != nil {
		return err
	}
	o.ReceiveAuthoritativeSync(msg.Keyframe, msg.Sync, &msg.Aux, msg.SimTime)
	return nil
}
