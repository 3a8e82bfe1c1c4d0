// Package sync holds the interpolation buffer a simulated-observer proxy
// uses to smooth a remote peer's state between two received snapshots.
package sync

// SnapshotBuffer retains the most recently received values of T (up to its
// capacity, at least two), so a
// caller can blend between them instead of snapping straight to the latest
// one. Callers supply their own notion of time alongside each value.
type SnapshotBuffer[T any] struct {
	entries  []T
	capacity int
}

// NewSnapshotBuffer creates a buffer with the given capacity (minimum 2,
// since interpolation needs at least two entries).
func NewSnapshotBuffer[T any](capacity int) *SnapshotBuffer[T] {
	if capacity < 2 {
		capacity = 2
	}
	return &SnapshotBuffer[T]{
		entries:  make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Add appends a newly received value, evicting the oldest if full.
func (b *SnapshotBuffer[T]) Add(v T) {
	if len(b.entries) >= b.capacity {
		copy(b.entries, b.entries[1:])
		b.entries = b.entries[:len(b.entries)-1]
	}
	b.entries = append(b.entries, v)
}

// Get returns the two values to interpolate between (older, newer), or nil
// for both if fewer than two have been received yet.
func (b *SnapshotBuffer[T]) Get() (older, newer *T) {
	n := len(b.entries)
	if n < 2 {
		return nil, nil
	}
	return &b.entries[n-2], &b.entries[n-1]
}

// Advance discards the oldest retained value once it is no longer needed.
func (b *SnapshotBuffer[T]) Advance() {
	if len(b.entries) > 0 {
		copy(b.entries, b.entries[1:])
		b.entries = b.entries[:len(b.entries)-1]
	}
}

// Latest returns the most recently added value.
func (b *SnapshotBuffer[T]) Latest() *T {
	if len(b.entries) == 0 {
		return nil
	}
	return &b.entries[len(b.entries)-1]
}

// Len returns the number of values currently retained.
func (b *SnapshotBuffer[T]) Len() int {
	return len(b.entries)
}
