package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapErrorPreservesErrorsIsMatching(t *testing.T) {
	wrapped := WrapError("SignalSend", ErrNoSuchProcess)
	assert.ErrorIs(t, wrapped, ErrNoSuchProcess)
	assert.NotErrorIs(t, wrapped, ErrInvalidArgument)
	assert.Contains(t, wrapped.Error(), "SignalSend")
	assert.Contains(t, wrapped.Error(), ErrNoSuchProcess.Error())
}

func TestInvariantPanicsWithDescriptiveMessage(t *testing.T) {
	assert.PanicsWithValue(t, "sched: invariant violated: freeing a runnable proc 7", func() {
		invariant("freeing a runnable proc %d", 7)
	})
}

func TestInvariantPanicsEvenWithNoFormatArgs(t *testing.T) {
	assert.Panics(t, func() { invariant("unlock of unheld spinlock") })
}
