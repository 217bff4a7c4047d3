package idhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXYZAUUIDDeterministic(t *testing.T) {
	a := XYZAUUID(10, -3, 77, 5)
	b := XYZAUUID(10, -3, 77, 5)
	assert.Equal(t, a, b)

	c := XYZAUUID(10, -3, 78, 5)
	assert.NotEqual(t, a, c)
}

func TestLatestKeyVariesByAccount(t *testing.T) {
	stack := XYZAUUID(1, 2, 3, 4)
	k1 := LatestKey("alice", stack)
	k2 := LatestKey("bob", stack)
	assert.NotEqual(t, k1, k2)
}

func TestCompositeKeyVariesBySequence(t *testing.T) {
	stack := XYZAUUID(1, 2, 3, 4)
	k1 := CompositeKey("alice", stack, 0)
	k2 := CompositeKey("alice", stack, 1)
	assert.NotEqual(t, k1, k2)
}

func TestRegionKeyCoarsensCoordinates(t *testing.T) {
	// Two points inside the same 64-unit region must hash to the same
	// region key, even though their xyza_uuid differs.
	r1 := RegionKey(0, 0, 0, 7)
	r2 := RegionKey(63, 10, 5, 7)
	assert.Equal(t, r1, r2)

	r3 := RegionKey(64, 0, 0, 7)
	assert.NotEqual(t, r1, r3)

	// A point just below zero falls in the region below, not region zero.
	r4 := RegionKey(0, 0, -1, 7)
	assert.NotEqual(t, r1, r4)

	// Two negative points in the same region still coarsen together.
	r5 := RegionKey(-64, -10, -1, 7)
	r6 := RegionKey(-1, -50, -64, 7)
	assert.Equal(t, r5, r6)
}

func TestFloorDivNegativeCoordinates(t *testing.T) {
	require.Equal(t, int64(-1), floorDiv(-1, 64))
	require.Equal(t, int64(-1), floorDiv(-64, 64))
	require.Equal(t, int64(-2), floorDiv(-65, 64))
	require.Equal(t, int64(0), floorDiv(0, 64))
	require.Equal(t, int64(0), floorDiv(63, 64))
	require.Equal(t, int64(1), floorDiv(64, 64))
}
