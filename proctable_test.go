package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcTableAllocateLookupRemove(t *testing.T) {
	tbl := NewProcTable(2)

	p1 := &Proc{}
	pid1, err := tbl.Allocate(p1)
	require.NoError(t, err)
	assert.Equal(t, PID(1), pid1)
	assert.Same(t, p1, tbl.Lookup(pid1))

	p2 := &Proc{}
	pid2, err := tbl.Allocate(p2)
	require.NoError(t, err)
	assert.Equal(t, PID(2), pid2)

	assert.Equal(t, 2, tbl.Len())

	_, err = tbl.Allocate(&Proc{})
	assert.ErrorIs(t, err, ErrOutOfMemory)

	tbl.Remove(pid1)
	assert.Nil(t, tbl.Lookup(pid1))
	assert.Equal(t, 1, tbl.Len())
}

func TestProcTableReusesFreedPIDs(t *testing.T) {
	tbl := NewProcTable(1)

	p1 := &Proc{}
	pid1, err := tbl.Allocate(p1)
	require.NoError(t, err)

	tbl.Remove(pid1)

	p2 := &Proc{}
	pid2, err := tbl.Allocate(p2)
	require.NoError(t, err)
	assert.Equal(t, pid1, pid2)
}

func TestProcTableRemoveUnknownIsNoop(t *testing.T) {
	tbl := NewProcTable(4)
	assert.NotPanics(t, func() { tbl.Remove(999) })
}

func TestProcTableSnapshot(t *testing.T) {
	tbl := NewProcTable(4)
	p1 := &Proc{}
	p2 := &Proc{}
	_, err := tbl.Allocate(p1)
	require.NoError(t, err)
	_, err = tbl.Allocate(p2)
	require.NoError(t, err)

	snap := tbl.Snapshot()
	assert.Len(t, snap, 2)
	assert.Contains(t, snap, p1)
	assert.Contains(t, snap, p2)
}
