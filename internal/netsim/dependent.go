package netsim

import "fmt"

// DependentSim is the narrow interface one simulation instance exposes to
// the parent/child dependent-simulation graph (MODULE G). It is
// implemented by *Orchestrator[In, Sy, Au] for any instantiation, so a
// parent and its dependents may use entirely different Input/Sync/Aux
// types — the edge is a weak reference used only for rollback-propagation
// dispatch, never for ownership (§9).
type DependentSim interface {
	// BeginRollback is called once on every dependent when a parent's
	// reconcile starts rewinding, before any StepRollback calls.
	BeginRollback(delta SimTime, parentKeyframe Keyframe)

	// StepRollback is called once per replayed parent keyframe, with
	// isFinal true on the last call.
	StepRollback(step int, parentKeyframe Keyframe, isFinal bool)

	parentRef() DependentSim
	setParentRef(p DependentSim)
	dependentRefs() []DependentSim
	addDependentRef(d DependentSim)
	removeDependentRef(d DependentSim)
	clearDependentRefs()
}

// SetParent assigns sim's parent, asserting the resulting graph stays
// acyclic (a tree, per the REDESIGN FLAG in spec §9) and keeping both
// sides of the edge in sync. Passing a nil parent detaches sim.
func SetParent(sim DependentSim, parent DependentSim) error {
	if parent != nil {
		for anc := parent; anc != nil; anc = anc.parentRef() {
			if anc == sim {
				return fmt.Errorf("netsim: SetParent would introduce a cycle")
			}
		}
	}
	if old := sim.parentRef(); old != nil {
		old.removeDependentRef(sim)
	}
	sim.setParentRef(parent)
	if parent != nil {
		parent.addDependentRef(sim)
	}
	return nil
}

// BeginRollbackPropagation drives every direct dependent of sim through
// phase one of the rollback protocol (§4.G), called by a parent's own
// Reconcile when it starts rewinding.
func BeginRollbackPropagation(sim DependentSim, delta SimTime, parentKeyframe Keyframe) {
	for _, d := range sim.dependentRefs() {
		d.BeginRollback(delta, parentKeyframe)
	}
}

// StepRollbackPropagation drives every direct dependent of sim through one
// step of phase two of the rollback protocol (§4.G).
func StepRollbackPropagation(sim DependentSim, step int, parentKeyframe Keyframe, isFinal bool) {
	for _, d := range sim.dependentRefs() {
		d.StepRollback(step, parentKeyframe, isFinal)
	}
}
