package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingFillsInOrder(t *testing.T) {
	r := newRing[int](4)

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Snapshot())

	r.Push(1)
	r.Push(2)
	r.Push(3)

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{1, 2, 3}, r.Snapshot())
}

func TestRingEvictsOldestWhenFull(t *testing.T) {
	r := newRing[int](3)

	for i := 1; i <= 7; i++ {
		r.Push(i)
	}

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{5, 6, 7}, r.Snapshot())
}

func TestRingSnapshotIsIndependent(t *testing.T) {
	r := newRing[int](3)
	r.Push(1)
	r.Push(2)

	snap := r.Snapshot()
	snap[0] = 99
	r.Push(3)

	assert.Equal(t, []int{1, 2, 3}, r.Snapshot())
}

func TestRingReset(t *testing.T) {
	r := newRing[int](3)
	r.Push(1)
	r.Push(2)

	r.Reset()

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Snapshot())

	r.Push(9)
	assert.Equal(t, []int{9}, r.Snapshot())
}
