package netsim

// BufferContainer bundles the four typed ring buffers an Orchestrator
// owns (MODULE B). Their heads are not forced to align with each other;
// only TickState relates Input and Sync keyframes.
type BufferContainer[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]] struct {
	Input RingBuffer[In]
	Sync  RingBuffer[Sy]
	Aux   RingBuffer[Au]
	Debug RingBuffer[DebugFrame]

	debugEnabled bool
}

// NewBufferContainer sizes all four buffers per params.
func NewBufferContainer[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]](params InitParams) *BufferContainer[In, Sy, Au] {
	bc := &BufferContainer[In, Sy, Au]{debugEnabled: params.DebugEnabled}
	bc.Input.SetCapacity(params.InputBufferSize)
	bc.Sync.SetCapacity(params.SyncedBufferSize)
	bc.Aux.SetCapacity(params.AuxBufferSize)
	debugCap := params.DebugBufferSize
	if !params.DebugEnabled {
		debugCap = 0
	}
	bc.Debug.SetCapacity(debugCap)
	return bc
}

// DebugEnabled reports whether the debug buffer is live. When false, every
// debug-returning accessor on the container yields nothing.
func (bc *BufferContainer[In, Sy, Au]) DebugEnabled() bool { return bc.debugEnabled }

// DebugHead returns the current debug head entry, or (nil, false) when
// debug capture is disabled or nothing has been written yet.
func (bc *BufferContainer[In, Sy, Au]) DebugHead() (*DebugFrame, bool) {
	if !bc.debugEnabled {
		return nil, false
	}
	return bc.Debug.Find(bc.Debug.HeadKeyframe())
}
