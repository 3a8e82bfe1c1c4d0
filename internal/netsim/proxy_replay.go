package netsim

import (
	"bytes"
	"encoding/gob"
)

// DefaultReplayCapacity is the default rolling window size (§4.E).
const DefaultReplayCapacity = 3

type replayEntry[Sy any] struct {
	Keyframe Keyframe
	Sync     Sy
}

// ReplayProxy records a rolling window of Sync states for replay/scrubbing.
// It has no effect on live simulation and is never dispatched by Role; the
// orchestrator drives its PostSimTick unconditionally every tick.
type ReplayProxy[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]] struct {
	window   []replayEntry[Sy]
	capacity int
	served   int // count of entries already handed out via Serialize
}

// NewReplayProxy creates a replay proxy with the given capacity, or
// DefaultReplayCapacity if capacity <= 0.
func NewReplayProxy[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]](capacity int) *ReplayProxy[In, Sy, Au] {
	if capacity <= 0 {
		capacity = DefaultReplayCapacity
	}
	return &ReplayProxy[In, Sy, Au]{capacity: capacity}
}

func (p *ReplayProxy[In, Sy, Au]) PreSimTick(*Orchestrator[In, Sy, Au], TickParams) {}

func (p *ReplayProxy[In, Sy, Au]) PostSimTick(o *Orchestrator[In, Sy, Au], _ TickParams) {
	if !o.Buffers.Sync.Written() {
		return
	}
	k := o.Buffers.Sync.HeadKeyframe()
	if len(p.window) > 0 && p.window[len(p.window)-1].Keyframe == k {
		return
	}
	sy, ok := o.Buffers.Sync.Find(k)
	if !ok {
		return
	}
	p.window = append(p.window, replayEntry[Sy]{Keyframe: k, Sync: *sy})
	if len(p.window) > p.capacity {
		p.window = p.window[1:]
		if p.served > 0 {
			p.served--
		}
	}
}

func (p *ReplayProxy[In, Sy, Au]) Reconcile(*Orchestrator[In, Sy, Au]) {}

// Serialize emits every window entry not yet served.
func (p *ReplayProxy[In, Sy, Au]) Serialize(_ *Orchestrator[In, Sy, Au], target ReplicationTarget) ([]byte, error) {
	if target != TargetReplay {
		return nil, unknownTargetError(target, "replay")
	}
	pending := p.window[p.served:]
	msg := replayWireMsg[Sy]{Entries: append([]replayEntry[Sy]{}, pending...)}
	p.served = len(p.window)
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *ReplayProxy[In, Sy, Au]) DirtyCount(_ *Orchestrator[In, Sy, Au], target ReplicationTarget) int {
	if target != TargetReplay {
		return 0
	}
	return len(p.window) - p.served
}

// Window returns the full retained replay window, oldest first.
func (p *ReplayProxy[In, Sy, Au]) Window() []replayEntry[Sy] {
	return p.window
}

type replayWireMsg[Sy any] struct {
	Entries []replayEntry[Sy]
}
