package aot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func queueNode(delta float64) *stateNode {
	n := newStateNode(testState(0), 0)
	n.delta = delta
	return n
}

func TestBoundedQueuePopsSmallestMagnitude(t *testing.T) {
	q := newBoundedQueue(8)
	for _, delta := range []float64{3, -1, 2, -5, 0.5} {
		inserted, evicted := q.push(queueNode(delta))
		require.True(t, inserted, "Push below capacity should insert")
		require.False(t, evicted, "Push below capacity should not evict")
	}

	var order []float64
	for !q.empty() {
		order = append(order, q.pop().core().delta)
	}
	require.Equal(t, []float64{0.5, -1, 2, 3, -5}, order,
		"Pop should return nodes by increasing |delta|")
}

func TestBoundedQueueEvictsWorstWhenFull(t *testing.T) {
	q := newBoundedQueue(3)
	worst := queueNode(9)
	q.push(queueNode(1))
	q.push(worst)
	q.push(queueNode(4))

	inserted, evicted := q.push(queueNode(2))

	require.True(t, inserted, "Better node should displace the worst")
	require.True(t, evicted, "Full queue should evict")
	require.Same(t, worst, q.removedElement(), "Evicted node should be exposed")
	require.Equal(t, 3, q.len(), "Queue should stay at capacity")
}

func TestBoundedQueueRejectsStrictlyWorse(t *testing.T) {
	q := newBoundedQueue(2)
	q.push(queueNode(1))
	q.push(queueNode(2))

	inserted, evicted := q.push(queueNode(5))

	require.False(t, inserted, "Strictly worse node should be rejected")
	require.False(t, evicted, "Rejection should not evict")
	require.Equal(t, 2, q.len(), "Queue should be unchanged")
}

func TestBoundedQueueTieEvicts(t *testing.T) {
	q := newBoundedQueue(2)
	q.push(queueNode(1))
	old := queueNode(3)
	q.push(old)

	tied := queueNode(-3)
	inserted, evicted := q.push(tied)

	require.True(t, inserted, "A |delta| tie with the worst should insert")
	require.True(t, evicted, "A |delta| tie with the worst should evict")
	require.Same(t, old, q.removedElement(), "The resident worst should be evicted on a tie")
}

func TestBoundedQueueOrdersBySignlessDelta(t *testing.T) {
	q := newBoundedQueue(4)
	q.push(queueNode(-2))
	q.push(queueNode(1))

	require.Equal(t, 1.0, q.pop().core().delta, "Magnitude, not sign, should order the queue")
	require.Equal(t, -2.0, q.pop().core().delta, "Magnitude, not sign, should order the queue")
}

func TestBoundedQueuePanicsOnEmptyPop(t *testing.T) {
	q := newBoundedQueue(1)
	require.Panics(t, func() { q.pop() }, "Popping an empty queue is a programming error")
}

func TestBoundedQueuePanicsOnZeroCapacity(t *testing.T) {
	require.Panics(t, func() { newBoundedQueue(0) }, "Zero capacity is a programming error")
}
