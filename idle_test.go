package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdleClassSingleResidentEntity(t *testing.T) {
	tbl := NewCPUTable(1)
	var idle IdleClass
	rq := tbl.CPU(0).RunQueue(idle)

	se := newTestEntity(NewPriority(MajorIdle, 0), CPUMaskAll(1))
	idle.Enqueue(rq, se)
	require.Equal(t, 1, rq.TaskCount())
	assert.Same(t, se, idle.PickNext(rq))

	// PickNext never removes the idle entity: the idle rq is always ready.
	assert.Same(t, se, idle.PickNext(rq))
}

func TestIdleClassEnqueueTwicePanics(t *testing.T) {
	tbl := NewCPUTable(1)
	var idle IdleClass
	rq := tbl.CPU(0).RunQueue(idle)
	idle.Enqueue(rq, newTestEntity(NewPriority(MajorIdle, 0), CPUMaskAll(1)))

	assert.Panics(t, func() {
		idle.Enqueue(rq, newTestEntity(NewPriority(MajorIdle, 0), CPUMaskAll(1)))
	})
}

func TestExitClassEveryEntryPointPanicsExceptPickNext(t *testing.T) {
	tbl := NewCPUTable(1)
	var ec ExitClass
	rq := tbl.CPU(0).RunQueue(ec)
	se := newTestEntity(NewPriority(MajorExit, 0), CPUMaskAll(1))

	assert.Nil(t, ec.PickNext(rq))
	assert.Panics(t, func() { ec.Enqueue(rq, se) })
	assert.Panics(t, func() { ec.Dequeue(rq, se) })
	assert.Panics(t, func() { ec.SetNext(rq, se) })
	assert.Panics(t, func() { ec.PutPrev(rq, se) })
	assert.Panics(t, func() { ec.SelectTaskRQ(se, tbl) })
}
