package netsim

import "math"

// SimTimeUnitsPerSecond is the fixed-point resolution of SimTime: one unit
// is 100 microseconds, so cross-peer arithmetic on durations is bit-exact
// instead of accumulating float64 rounding error tick over tick.
const SimTimeUnitsPerSecond = 10000

// SimTime is a fixed-point simulation-time duration.
type SimTime int64

// SimTimeFromSeconds converts a driver-supplied delta (real seconds) into
// fixed-point SimTime at the boundary of the core.
func SimTimeFromSeconds(seconds float64) SimTime {
	return SimTime(math.Round(seconds * SimTimeUnitsPerSecond))
}

// Seconds converts back to floating point, for driver callbacks that deal
// in real time (e.g. Update's deltaSeconds parameter).
func (t SimTime) Seconds() float64 {
	return float64(t) / SimTimeUnitsPerSecond
}
