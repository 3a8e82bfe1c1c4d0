package netsim

// TickState tracks processed simulation time, the last-processed input
// keyframe, and the time-budget ceiling for the current tick (MODULE C).
type TickState struct {
	LastProcessedInputKeyframe    Keyframe
	MaxAllowedInputKeyframe       Keyframe
	TotalProcessedSimulationTime  SimTime
	RemainingAllowedSimulationTime SimTime

	// stamps parallels Sync: stamps[k] is TotalProcessedSimulationTime as
	// of the tick that produced Sync[k], so callers can ask "what was
	// total simulation time at Sync[k]?" without recomputing a sum.
	stamps RingBuffer[SimTime]
}

// NewTickState creates a TickState whose per-keyframe stamp buffer has the
// same capacity as the Sync buffer it parallels.
func NewTickState(syncCapacity int) *TickState {
	ts := &TickState{}
	ts.stamps.SetCapacity(syncCapacity)
	return ts
}

// SimTimeAt returns the total processed simulation time as of keyframe k.
func (ts *TickState) SimTimeAt(k Keyframe) (SimTime, bool) {
	v, ok := ts.stamps.Find(k)
	if !ok {
		return 0, false
	}
	return *v, true
}

// IncrementProcessed advances TotalProcessedSimulationTime by delta,
// decrements the remaining budget, stamps keyframe k with the new total,
// and records k as the last processed input keyframe.
func (ts *TickState) IncrementProcessed(delta SimTime, k Keyframe) {
	ts.TotalProcessedSimulationTime += delta
	ts.RemainingAllowedSimulationTime -= delta
	*ts.stamps.ResetNextHeadKeyframe(k) = ts.TotalProcessedSimulationTime
	ts.LastProcessedInputKeyframe = k
}

// SetTotalProcessed is the rollback form of IncrementProcessed: it moves
// TotalProcessedSimulationTime directly to t (backward, never past what
// the Sync buffer retains) and re-stamps keyframe k as the new head of the
// parallel time buffer, clearing anything stamped beyond it.
func (ts *TickState) SetTotalProcessed(t SimTime, k Keyframe) {
	ts.TotalProcessedSimulationTime = t
	ts.LastProcessedInputKeyframe = k
	*ts.stamps.ResetNextHeadKeyframe(k) = t
}

// ResyncStamp re-aligns the per-keyframe stamp buffer to keyframe k without
// changing TotalProcessedSimulationTime, used when Sync is re-seeded on a
// continuity break (the seed frame contributes no new simulation time).
func (ts *TickState) ResyncStamp(k Keyframe) {
	*ts.stamps.ResetNextHeadKeyframe(k) = ts.TotalProcessedSimulationTime
}
