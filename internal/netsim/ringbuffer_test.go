package netsim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingBufferWriteNextStartsAtZero(t *testing.T) {
	rb := NewRingBuffer[int](4)
	require.False(t, rb.Written())

	*rb.WriteNext() = 10
	require.True(t, rb.Written())
	require.Equal(t, Keyframe(0), rb.HeadKeyframe())
	require.Equal(t, Keyframe(0), rb.TailKeyframe())

	*rb.WriteNext() = 20
	require.Equal(t, Keyframe(1), rb.HeadKeyframe())
	v, ok := rb.Find(1)
	require.True(t, ok)
	require.Equal(t, 20, *v)
}

func TestRingBufferEvictsTailAtCapacity(t *testing.T) {
	rb := NewRingBuffer[int](4)
	for i := 0; i < 4; i++ {
		*rb.WriteNext() = i
	}
	require.Equal(t, Keyframe(0), rb.TailKeyframe())
	require.Equal(t, 4, rb.Len())

	*rb.WriteNext() = 4 // keyframe 4, should evict keyframe 0
	require.Equal(t, Keyframe(1), rb.TailKeyframe())
	require.Equal(t, 4, rb.Len())

	_, ok := rb.Find(0)
	require.False(t, ok, "evicted keyframe must not be found")
	v, ok := rb.Find(4)
	require.True(t, ok)
	require.Equal(t, 4, *v)
}

func TestRingBufferFindOutOfRange(t *testing.T) {
	rb := NewRingBuffer[int](4)
	_, ok := rb.Find(0)
	require.False(t, ok, "unwritten buffer has nothing to find")

	*rb.WriteNext() = 1
	_, ok = rb.Find(5)
	require.False(t, ok, "keyframe beyond head must not be found")
}

func TestRingBufferResetNextHeadKeyframeSeeds(t *testing.T) {
	rb := NewRingBuffer[int](4)
	seed := rb.ResetNextHeadKeyframe(7)
	*seed = 100

	require.True(t, rb.Written())
	require.Equal(t, Keyframe(7), rb.HeadKeyframe())
	require.Equal(t, Keyframe(7), rb.TailKeyframe())

	v, ok := rb.Find(7)
	require.True(t, ok)
	require.Equal(t, 100, *v)

	*rb.WriteNext() = 200
	require.Equal(t, Keyframe(8), rb.HeadKeyframe())
}

func TestRingBufferResetNextHeadKeyframeClearsForward(t *testing.T) {
	rb := NewRingBuffer[int](8)
	for i := 0; i < 5; i++ {
		*rb.WriteNext() = i // keyframes 0..4
	}

	rb.ResetNextHeadKeyframe(2)
	require.Equal(t, Keyframe(2), rb.HeadKeyframe())

	_, ok := rb.Find(3)
	require.False(t, ok, "keyframes beyond the reset point must be cleared")
	_, ok = rb.Find(4)
	require.False(t, ok)

	v, ok := rb.Find(2)
	require.True(t, ok)
	require.Equal(t, 2, *v, "the reset keyframe's own prior content is untouched")

	*rb.WriteNext() = 300
	require.Equal(t, Keyframe(3), rb.HeadKeyframe())
	v, ok = rb.Find(3)
	require.True(t, ok)
	require.Equal(t, 300, *v)
}

func TestRingBufferRollbackThenReplayLandsExactlyOnTarget(t *testing.T) {
	rb := NewRingBuffer[int](8)
	for i := 0; i < 5; i++ {
		*rb.WriteNext() = i * 10 // keyframes 0..4, values 0,10,20,30,40
	}

	const K = Keyframe(3)
	rb.ResetNextHeadKeyframe(K - 1)
	*rb.WriteNext() = 999 // authoritative replacement for keyframe 3

	require.Equal(t, K, rb.HeadKeyframe())
	v, ok := rb.Find(K)
	require.True(t, ok)
	require.Equal(t, 999, *v)

	_, ok = rb.Find(4)
	require.False(t, ok, "keyframe 4 must be cleared, to be replayed fresh")
}
