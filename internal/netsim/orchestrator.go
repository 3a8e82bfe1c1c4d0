package netsim

import (
	"fmt"

	"github.com/rayman-net/slideshift/internal/netsim/netlog"
)

// authoritativeUpdate holds the most recent authoritative Sync/Aux pair
// delivered by the host, awaiting the next Reconcile call.
type authoritativeUpdate[Sy any, Au any] struct {
	keyframe Keyframe
	sync     Sy
	aux      Au
	simTime  SimTime
}

// Orchestrator is the top-level object (MODULE F): it owns the four
// buffers, the tick state, one instance of each replication proxy, the
// driver, and the dependent-simulation graph.
type Orchestrator[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]] struct {
	Buffers *BufferContainer[In, Sy, Au]
	State   *TickState
	Driver  Driver[In, Sy, Au]
	Sim     Simulation[In, Sy, Au]
	Logger  netlog.Logger

	proxies *proxySet[In, Sy, Au]

	pendingAuth *authoritativeUpdate[Sy, Au]

	globalFrameCounter uint64

	historic     *RingBuffer[Sy]
	historicSize int

	parent     DependentSim
	dependents []DependentSim

	rpcThreshold   float64
	rpcAccumulator float64

	rollbackReplayKeyframe Keyframe
	lastSentInputKeyframe  Keyframe
}

// NewOrchestrator creates an orchestrator around driver/simulation, with
// no buffers sized yet; call InitializeForRole before ticking.
func NewOrchestrator[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]](driver Driver[In, Sy, Au], sim Simulation[In, Sy, Au]) *Orchestrator[In, Sy, Au] {
	return &Orchestrator[In, Sy, Au]{
		Driver: driver,
		Sim:    sim,
		Logger: netlog.Discard(),
	}
}

// InitializeForRole sizes all buffers, seeds Input with the empty
// keyframe-0 sentinel, sizes the per-keyframe sim-time buffer, and
// optionally creates the historic buffer.
func (o *Orchestrator[In, Sy, Au]) InitializeForRole(role Role, params InitParams) {
	o.Buffers = NewBufferContainer[In, Sy, Au](params)
	o.State = NewTickState(params.SyncedBufferSize)
	o.proxies = newProxySet[In, Sy, Au](DefaultReplayCapacity)

	var sentinel In
	*o.Buffers.Input.WriteNext() = sentinel

	if params.HistoricBufferSize > 0 {
		o.historic = NewRingBuffer[Sy](params.HistoricBufferSize)
		o.historicSize = params.HistoricBufferSize
	}

	o.rpcThreshold = 0
	o.rpcAccumulator = 0
	_ = role
}

// Close tears the orchestrator down, clearing the parent link first (the
// orchestrator's own precondition for destruction) and then every
// dependent link, matching the teacher's weak-reference teardown contract.
func (o *Orchestrator[In, Sy, Au]) Close() {
	if o.parent != nil {
		o.parent.removeDependentRef(o)
		o.parent = nil
	}
	o.ClearAllDependents()
}

// Tick drives one simulation tick via the Engine (MODULE D).
func (o *Orchestrator[In, Sy, Au]) Tick(params TickParams) {
	var eng Engine[In, Sy, Au]
	eng.Tick(o, params)
}

// Reconcile dispatches to the role-appropriate proxy's Reconcile method.
func (o *Orchestrator[In, Sy, Au]) Reconcile(role Role) {
	o.proxies.byRole(role).Reconcile(o)
}

// ReceiveAuthoritativeSync is called by the host's RPC dispatcher when an
// authoritative Sync (and Aux) arrives over the network, to be consumed by
// the next Reconcile call.
func (o *Orchestrator[In, Sy, Au]) ReceiveAuthoritativeSync(k Keyframe, sync Sy, aux *Au, simTime SimTime) {
	var a Au
	if aux != nil {
		a = *aux
	}
	o.pendingAuth = &authoritativeUpdate[Sy, Au]{keyframe: k, sync: sync, aux: a, simTime: simTime}
}

// SimulatedUpdateMode reports the simulated-observer proxy's active mode,
// so a driver's ProduceInput can decide how to synthesize input for it.
func (o *Orchestrator[In, Sy, Au]) SimulatedUpdateMode() SimulatedUpdateMode {
	return o.proxies.simulated.GetSimulatedUpdateMode()
}

// SetSimulatedUpdateMode configures the simulated-observer proxy.
func (o *Orchestrator[In, Sy, Au]) SetSimulatedUpdateMode(m SimulatedUpdateMode) {
	o.proxies.simulated.SetSimulatedUpdateMode(m)
}

// SetSimulatedInterpolationDelay configures the simulated-observer proxy's
// blend-delay window.
func (o *Orchestrator[In, Sy, Au]) SetSimulatedInterpolationDelay(d SimTime) {
	o.proxies.simulated.SetInterpolationDelay(d)
}

// ObservedSync returns the value a renderer should display for the
// simulated-observer proxy's peer right now: see
// SimulatedObserverProxy.Observed.
func (o *Orchestrator[In, Sy, Au]) ObservedSync() (Sy, bool) {
	return o.proxies.simulated.Observed(o.State.TotalProcessedSimulationTime)
}

// EnqueueReceivedInput feeds a client input into the server-receiver
// proxy's pending queue (authority role only).
func (o *Orchestrator[In, Sy, Au]) EnqueueReceivedInput(k Keyframe, cmd In) {
	o.proxies.serverReceiver.EnqueueReceivedInput(k, cmd)
}

// AckInput marks client input keyframes up to k as acknowledged
// (autonomous-proxy role only).
func (o *Orchestrator[In, Sy, Au]) AckInput(k Keyframe) {
	o.proxies.autonomous.Ack(k)
}

// ReplayWindow returns the replay proxy's retained Sync window.
func (o *Orchestrator[In, Sy, Au]) ReplayWindow() []replayEntry[Sy] {
	return o.proxies.replay.Window()
}

func unknownTargetError(target ReplicationTarget, proxy string) error {
	return fmt.Errorf("%w: %s proxy cannot serve %s", ErrUnknownTarget, proxy, target)
}

// Serialize dispatches to the proxy responsible for target. An unknown
// target is a programming error and panics (§7).
func (o *Orchestrator[In, Sy, Au]) Serialize(target ReplicationTarget) ([]byte, error) {
	switch target {
	case TargetServerRPC:
		return o.proxies.autonomous.Serialize(o, target)
	case TargetAutonomousProxy, TargetSimulatedProxy:
		return o.proxies.serverReceiver.Serialize(o, target)
	case TargetReplay:
		return o.proxies.replay.Serialize(o, target)
	case TargetDebug:
		return o.proxies.debug.Serialize(o, target)
	default:
		panic(fmt.Sprintf("netsim: unknown replication target %d", target))
	}
}

// DirtyCount dispatches to the proxy responsible for target. An unknown
// target is a programming error and panics (§7).
func (o *Orchestrator[In, Sy, Au]) DirtyCount(target ReplicationTarget) int {
	switch target {
	case TargetServerRPC:
		return o.proxies.autonomous.DirtyCount(o, target)
	case TargetAutonomousProxy, TargetSimulatedProxy:
		return o.proxies.serverReceiver.DirtyCount(o, target)
	case TargetReplay:
		return o.proxies.replay.DirtyCount(o, target)
	case TargetDebug:
		return o.proxies.debug.DirtyCount(o, target)
	default:
		panic(fmt.Sprintf("netsim: unknown replication target %d", target))
	}
}

// auxAt returns the Aux value valid at keyframe k: the most recent Aux
// entry at or before k, since Aux does not necessarily change every frame.
func (o *Orchestrator[In, Sy, Au]) auxAt(k Keyframe) *Au {
	if !o.Buffers.Aux.Written() {
		var zero Au
		return &zero
	}
	tail := o.Buffers.Aux.TailKeyframe()
	for kf := k; ; kf-- {
		if v, ok := o.Buffers.Aux.Find(kf); ok {
			return v
		}
		if kf <= tail {
			break
		}
	}
	var zero Au
	return &zero
}

// replayAndPropagate re-runs Update for keyframes K+1..replayTo (the
// retained inputs since the reconciled keyframe), driving the
// dependent-simulation rollback protocol in lockstep (§4.G).
func (o *Orchestrator[In, Sy, Au]) replayAndPropagate(K Keyframe, replayTo Keyframe) {
	BeginRollbackPropagation(o, o.State.TotalProcessedSimulationTime, K)

	if replayTo <= K {
		StepRollbackPropagation(o, 0, K, true)
		return
	}

	step := 0
	for k := K + 1; k <= replayTo; k++ {
		in, ok := o.Buffers.Input.Find(k)
		if !ok {
			break
		}
		prev, ok := o.Buffers.Sync.Find(k - 1)
		if !ok {
			panic(ErrMissingPriorSync)
		}
		next := o.Buffers.Sync.WriteNext()
		aux := o.auxAt(k)
		o.Sim.Update(o.Driver, in.FrameDeltaTime().Seconds(), in, prev, next, aux)
		o.State.IncrementProcessed(in.FrameDeltaTime(), k)
		o.Driver.FinalizeFrame(next)
		step++
		StepRollbackPropagation(o, step, k, k == replayTo)
	}
}

// propagateDependentRollback drives dependents through begin/step-rollback
// without a local replay loop, used by reconcile paths that reseed a new
// origin instead of replaying retained inputs.
func (o *Orchestrator[In, Sy, Au]) propagateDependentRollback(delta SimTime, K Keyframe, isFinal bool) {
	BeginRollbackPropagation(o, delta, K)
	StepRollbackPropagation(o, 0, K, isFinal)
}

// --- RPC pacing ---

// SetDesiredServerRPCSendFrequency sets the send threshold to 1/hz.
func (o *Orchestrator[In, Sy, Au]) SetDesiredServerRPCSendFrequency(hz float64) {
	if hz <= 0 {
		o.rpcThreshold = 0
		return
	}
	o.rpcThreshold = 1.0 / hz
}

// ShouldSendServerRPC accumulates dt and returns true (subtracting
// threshold from the accumulator) once the accumulator reaches threshold.
// A copy of dt capped at threshold is computed for the trace log only;
// matching a quirk flagged as possibly unintended in the source this was
// ported from, both the accumulator and the check use the uncapped dt, so a
// single large dt can produce sends on several consecutive calls.
func (o *Orchestrator[In, Sy, Au]) ShouldSendServerRPC(dt float64) bool {
	if o.rpcThreshold <= 0 {
		return false
	}
	capped := dt
	if capped > o.rpcThreshold {
		capped = o.rpcThreshold
	}
	o.Logger.Trace("rpc pacer tick", "dt", dt, "capped", capped)
	o.rpcAccumulator += dt
	// A small slack keeps float64 rounding from delaying a send when the
	// summed dt equals threshold in decimal (ten 0.01s steps sum to
	// 0.09999999999999999, just under a 0.1s threshold).
	const rpcPacerEpsilon = 1e-9
	if o.rpcAccumulator+rpcPacerEpsilon >= o.rpcThreshold {
		o.rpcAccumulator -= o.rpcThreshold
		return true
	}
	return false
}

// --- Dependent-simulation graph (MODULE G) ---

func (o *Orchestrator[In, Sy, Au]) parentRef() DependentSim { return o.parent }
func (o *Orchestrator[In, Sy, Au]) setParentRef(p DependentSim) { o.parent = p }
func (o *Orchestrator[In, Sy, Au]) dependentRefs() []DependentSim { return o.dependents }

func (o *Orchestrator[In, Sy, Au]) addDependentRef(d DependentSim) {
	for _, existing := range o.dependents {
		if existing == d {
			return
		}
	}
	o.dependents = append(o.dependents, d)
}

func (o *Orchestrator[In, Sy, Au]) removeDependentRef(d DependentSim) {
	for i, existing := range o.dependents {
		if existing == d {
			o.dependents = append(o.dependents[:i], o.dependents[i+1:]...)
			return
		}
	}
}

func (o *Orchestrator[In, Sy, Au]) clearDependentRefs() { o.dependents = nil }

// SetParent assigns o's parent, asserting acyclicity.
func (o *Orchestrator[In, Sy, Au]) SetParent(parent DependentSim) error {
	return SetParent(o, parent)
}

// GetParent returns o's current parent, or nil.
func (o *Orchestrator[In, Sy, Au]) GetParent() DependentSim { return o.parent }

// AddDependent registers d as a dependent of o (equivalent to calling
// d.SetParent(o), provided for symmetry with spec's operation list).
func (o *Orchestrator[In, Sy, Au]) AddDependent(d DependentSim) error {
	return SetParent(d, o)
}

// RemoveDependent detaches d from o, if attached.
func (o *Orchestrator[In, Sy, Au]) RemoveDependent(d DependentSim) {
	if d.parentRef() != DependentSim(o) {
		return
	}
	_ = SetParent(d, nil)
}

// ClearAllDependents detaches every dependent from o.
func (o *Orchestrator[In, Sy, Au]) ClearAllDependents() {
	for _, d := range append([]DependentSim{}, o.dependents...) {
		_ = SetParent(d, nil)
	}
}

// BeginRollback is called on o when its parent's reconcile starts
// rewinding: o mirrors the rewind point so the following StepRollback
// calls replay o's own Update in lockstep with the corrected parent.
func (o *Orchestrator[In, Sy, Au]) BeginRollback(_ SimTime, parentKeyframe Keyframe) {
	if o.Buffers == nil || !o.Buffers.Sync.Written() {
		return
	}
	if _, ok := o.Buffers.Sync.Find(parentKeyframe); !ok {
		o.Logger.Warn("dependent rollback target evicted from sync buffer", "keyframe", parentKeyframe)
	}
	o.rollbackReplayKeyframe = parentKeyframe
}

// StepRollback re-runs o's own Update for the keyframe the parent just
// replayed, keeping o's trajectory consistent with the parent's corrected
// one.
func (o *Orchestrator[In, Sy, Au]) StepRollback(step int, parentKeyframe Keyframe, isFinal bool) {
	k := o.rollbackReplayKeyframe + Keyframe(step)
	if step == 0 {
		k = parentKeyframe
	}
	in, ok := o.Buffers.Input.Find(k)
	if !ok {
		return
	}
	prev, ok := o.Buffers.Sync.Find(k - 1)
	if !ok {
		return
	}
	next := o.Buffers.Sync.WriteNext()
	aux := o.auxAt(k)
	o.Sim.Update(o.Driver, in.FrameDeltaTime().Seconds(), in, prev, next, aux)
	o.State.IncrementProcessed(in.FrameDeltaTime(), k)
	if isFinal {
		o.Driver.FinalizeFrame(next)
	}
}
