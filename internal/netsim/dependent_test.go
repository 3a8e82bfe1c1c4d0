package netsim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type stepCall struct {
	step           int
	parentKeyframe Keyframe
	isFinal        bool
}

// spyDependent is a minimal DependentSim used to observe exactly what the
// rollback-propagation helpers dispatch, without needing a second fully
// wired Orchestrator.
type spyDependent struct {
	parent DependentSim
	deps   []DependentSim

	beginDeltas    []SimTime
	beginKeyframes []Keyframe
	steps          []stepCall
}

func (s *spyDependent) BeginRollback(delta SimTime, parentKeyframe Keyframe) {
	s.beginDeltas = append(s.beginDeltas, delta)
	s.beginKeyframes = append(s.beginKeyframes, parentKeyframe)
}

func (s *spyDependent) StepRollback(step int, parentKeyframe Keyframe, isFinal bool) {
	s.steps = append(s.steps, stepCall{step, parentKeyframe, isFinal})
}

func (s *spyDependent) parentRef() DependentSim       { return s.parent }
func (s *spyDependent) setParentRef(p DependentSim)   { s.parent = p }
func (s *spyDependent) dependentRefs() []DependentSim { return s.deps }

func (s *spyDependent) addDependentRef(d DependentSim) {
	for _, existing := range s.deps {
		if existing == d {
			return
		}
	}
	s.deps = append(s.deps, d)
}

func (s *spyDependent) removeDependentRef(d DependentSim) {
	for i, existing := range s.deps {
		if existing == d {
			s.deps = append(s.deps[:i], s.deps[i+1:]...)
			return
		}
	}
}

func (s *spyDependent) clearDependentRefs() { s.deps = nil }

func TestSetParentDetectsCycle(t *testing.T) {
	a, _ := newFixtureOrchestrator(RoleAuthority, 1.0)
	b, _ := newFixtureOrchestrator(RoleAuthority, 1.0)

	require.NoError(t, a.SetParent(b))
	err := b.SetParent(a)
	require.Error(t, err, "b adopting a as its parent would close a cycle")
}

func TestAddDependentAndRemoveDependentAreSymmetric(t *testing.T) {
	parent, _ := newFixtureOrchestrator(RoleAuthority, 1.0)
	child, _ := newFixtureOrchestrator(RoleAuthority, 1.0)

	require.NoError(t, parent.AddDependent(child))
	require.Equal(t, DependentSim(parent), child.GetParent())
	require.Contains(t, parent.dependentRefs(), DependentSim(child))

	parent.RemoveDependent(child)
	require.Nil(t, child.GetParent())
	require.Empty(t, parent.dependentRefs())
}

func TestRollbackPropagationDuringReconcile(t *testing.T) {
	o, driver := newFixtureOrchestrator(RoleAutonomousProxy, 1.0)
	for i := 0; i < 3; i++ {
		o.Tick(TickParams{Role: RoleAutonomousProxy, LocalDeltaTimeSeconds: 0.1})
	}

	spy := &spyDependent{}
	require.NoError(t, o.AddDependent(spy))

	o.ReceiveAuthoritativeSync(2, fixtureSync{Pos: 5.0}, &fixtureAux{}, SimTimeFromSeconds(0.2))
	o.Reconcile(RoleAutonomousProxy)

	require.Len(t, spy.beginKeyframes, 1)
	require.Equal(t, Keyframe(2), spy.beginKeyframes[0])

	require.Len(t, spy.steps, 1, "exactly one retained input (keyframe 3) needed replaying")
	require.Equal(t, Keyframe(3), spy.steps[0].parentKeyframe)
	require.True(t, spy.steps[0].isFinal)

	require.Len(t, driver.finalized, 4)
}

func TestClearAllDependentsDetachesEveryChild(t *testing.T) {
	parent, _ := newFixtureOrchestrator(RoleAuthority, 1.0)
	a := &spyDependent{}
	b := &spyDependent{}
	require.NoError(t, parent.AddDependent(a))
	require.NoError(t, parent.AddDependent(b))

	parent.ClearAllDependents()

	require.Empty(t, parent.dependentRefs())
	require.Nil(t, a.parentRef())
	require.Nil(t, b.parentRef())
}
