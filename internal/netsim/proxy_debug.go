package netsim

import (
	"bytes"
	"encoding/gob"
)

// DebugProxy ships the Debug buffer server to client for diagnostic
// replay. When BufferContainer.DebugEnabled is false the buffer's capacity
// is zero and every getter below returns nothing, matching the "compiled
// out" behavior described in spec §4.E without an actual build tag.
type DebugProxy[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]] struct {
	served Keyframe
	known  bool
}

func (p *DebugProxy[In, Sy, Au]) PreSimTick(*Orchestrator[In, Sy, Au], TickParams)  {}
func (p *DebugProxy[In, Sy, Au]) PostSimTick(*Orchestrator[In, Sy, Au], TickParams) {}
func (p *DebugProxy[In, Sy, Au]) Reconcile(*Orchestrator[In, Sy, Au])              {}

func (p *DebugProxy[In, Sy, Au]) Serialize(o *Orchestrator[In, Sy, Au], target ReplicationTarget) ([]byte, error) {
	if target != TargetDebug {
		return nil, unknownTargetError(target, "debug")
	}
	if !o.Buffers.DebugEnabled() || !o.Buffers.Debug.Written() {
		return nil, nil
	}
	head := o.Buffers.Debug.HeadKeyframe()
	start := o.Buffers.Debug.TailKeyframe()
	if p.known && p.served+1 > start {
		start = p.served + 1
	}
	msg := debugWireMsg{}
	for k := start; k <= head; k++ {
		if f, ok := o.Buffers.Debug.Find(k); ok {
			msg.Frames = append(msg.Frames, *f)
		}
	}
	p.served = head
	p.known = true
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *DebugProxy[In, Sy, Au]) DirtyCount(o *Orchestrator[In, Sy, Au], target ReplicationTarget) int {
	if target != TargetDebug || !o.Buffers.DebugEnabled() || !o.Buffers.Debug.Written() {
		return 0
	}
	head := o.Buffers.Debug.HeadKeyframe()
	if !p.known {
		return int(head-o.Buffers.Debug.TailKeyframe()) + 1
	}
	if head <= p.served {
		return 0
	}
	return int(head - p.served)
}

type debugWireMsg struct {
	Frames []DebugFrame
}
