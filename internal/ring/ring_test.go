package ring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNodeIdempotent(t *testing.T) {
	r := New(8)
	r.AddNode("a")
	r.AddNode("b")
	before := r.Replicas("some-key", 2)

	r.AddNode("a") // re-add, must be a no-op on the ring contents
	after := r.Replicas("some-key", 2)

	assert.Equal(t, before, after)
}

func TestAddThenRemoveRestoresRing(t *testing.T) {
	r := New(16)
	r.AddNode("a")
	r.AddNode("b")
	snapshotBefore := r.Replicas("k1", 2)

	r.AddNode("c")
	r.RemoveNode("c")

	snapshotAfter := r.Replicas("k1", 2)
	assert.Equal(t, snapshotBefore, snapshotAfter)
	assert.Equal(t, 2, r.Size())
}

func TestReplicaDistinctness(t *testing.T) {
	r := New(32)
	for _, n := range []string{"n1", "n2", "n3", "n4"} {
		r.AddNode(n)
	}

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key-%d", i)
		reps := r.Replicas(key, 3)
		require.LessOrEqual(t, len(reps), 3)

		seen := make(map[string]bool)
		for _, id := range reps {
			require.False(t, seen[id], "duplicate replica %s for key %s", id, key)
			seen[id] = true
		}
	}
}

func TestReplicaCoverage(t *testing.T) {
	r := New(32)
	for _, n := range []string{"n1", "n2", "n3", "n4", "n5"} {
		r.AddNode(n)
	}

	reps := r.Replicas("coverage-key", 3)
	assert.Len(t, reps, 3)
}

func TestReplicasFewerThanRequestedWhenFewNodes(t *testing.T) {
	r := New(8)
	r.AddNode("only")

	reps := r.Replicas("k", 3)
	assert.Equal(t, []string{"only"}, reps)
}

func TestReplicasEmptyRing(t *testing.T) {
	r := New(8)
	assert.Nil(t, r.Replicas("k", 3))
}

func TestRemoveNodeToleratesMissing(t *testing.T) {
	r := New(8)
	require.NotPanics(t, func() {
		r.RemoveNode("never-added")
	})
}

func TestWrapAround(t *testing.T) {
	r := New(4)
	r.AddNode("a")
	r.AddNode("b")
	r.AddNode("c")

	// Every key must resolve to something, regardless of where its hash
	// lands relative to the highest virtual slot (exercises the wrap).
	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("wrap-%d", i)
		reps := r.Replicas(key, 1)
		require.Len(t, reps, 1)
	}
}
