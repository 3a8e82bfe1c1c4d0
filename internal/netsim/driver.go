package netsim

// Driver is the host object that owns a simulation: it supplies inputs,
// seeds initial state, and is notified when a new state is finalized. It
// is an external collaborator (§1 Scope) — the core only calls it, never
// implements it.
type Driver[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]] interface {
	// DebugName identifies this driver instance in logs.
	DebugName() string

	// InitSyncState must fully initialize a fresh Sync value. Called to
	// seed Sync[0] and again whenever a continuity break forces a re-seed.
	InitSyncState(sy *Sy)

	// ProduceInput fills a new Input Command for the current local frame.
	// t is the total simulation time processed so far, for drivers that
	// want to timestamp or rate-limit input production.
	ProduceInput(t SimTime, in *In)

	// FinalizeFrame is called after the engine advances the Sync head, so
	// the host can present the newly produced state.
	FinalizeFrame(sy *Sy)
}

// Simulation is the user-supplied, deterministic state transition. It must
// read no global state: given identical inputs and PrevSync it must
// always produce the same NextSync (§8 Determinism law).
type Simulation[In InputCommand, Sy SyncState[Sy], Au AuxState[Au]] interface {
	// Update computes NextSync from PrevSync, the Input Command active at
	// this keyframe, and the Aux value valid at this keyframe.
	Update(driver Driver[In, Sy, Au], deltaSeconds float64, in *In, prev *Sy, next *Sy, aux *Au)

	// GroupName identifies the simulation for the host scheduler.
	GroupName() string
}
