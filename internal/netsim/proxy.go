package netsim

// Proxy is the common method set every replication proxy implements,
// switched by Role at tick time (§9: a closed tagged variant, not a deep
// inheritance tree). Serialize/DirtyCount are not part of this interface
// because they are addressed by ReplicationTarget, not Role — see
// Orchestrator.Serialize.
type Proxy[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]] interface {
	PreSimTick(o *Orchestrator[In, Sy, Au], params TickParams)
	PostSimTick(o *Orchestrator[In, Sy, Au], params TickParams)
	Reconcile(o *Orchestrator[In, Sy, Au])
}

// proxySet holds one instance of each of the five replication proxies
// (MODULE E): three are dispatched by Role (server receiver, autonomous
// predictor, simulated observer), two are auxiliary channels addressed
// only by ReplicationTarget (replay, debug).
type proxySet[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]] struct {
	serverReceiver  *ServerReceiverProxy[In, Sy, Au]
	autonomous      *AutonomousPredictorProxy[In, Sy, Au]
	simulated       *SimulatedObserverProxy[In, Sy, Au]
	replay          *ReplayProxy[In, Sy, Au]
	debug           *DebugProxy[In, Sy, Au]
}

func newProxySet[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]](replayCapacity int) *proxySet[In, Sy, Au] {
	return &proxySet[In, Sy, Au]{
		serverReceiver: &ServerReceiverProxy[In, Sy, Au]{pending: make(map[Keyframe]pendingInput[In])},
		autonomous:     &AutonomousPredictorProxy[In, Sy, Au]{unacked: make(map[Keyframe]struct{})},
		simulated:      &SimulatedObserverProxy[In, Sy, Au]{mode: ModeInterpolate, interpDelay: SimTimeFromSeconds(0.1)},
		replay:         NewReplayProxy[In, Sy, Au](replayCapacity),
		debug:          &DebugProxy[In, Sy, Au]{},
	}
}

// byRole returns the Proxy driving PreSimTick/PostSimTick/Reconcile for r.
func (ps *proxySet[In, Sy, Au]) byRole(r Role) Proxy[In, Sy, Au] {
	switch r {
	case RoleAuthority:
		return ps.serverReceiver
	case RoleAutonomousProxy:
		return ps.autonomous
	case RoleSimulatedProxy:
		return ps.simulated
	default:
		panic("netsim: unknown role")
	}
}
