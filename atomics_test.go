package sched

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCAS32(t *testing.T) {
	var v atomic.Uint32
	v.Store(5)
	require.True(t, CAS32(&v, 5, 6))
	assert.Equal(t, uint32(6), v.Load())
	assert.False(t, CAS32(&v, 5, 7))
}

func TestCAS64(t *testing.T) {
	var v atomic.Uint64
	v.Store(5)
	require.True(t, CAS64(&v, 5, 6))
	assert.Equal(t, uint64(6), v.Load())
	assert.False(t, CAS64(&v, 5, 7))
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	var v32 atomic.Uint32
	ReleaseStore32(&v32, 42)
	assert.Equal(t, uint32(42), AcquireLoad32(&v32))

	var v64 atomic.Uint64
	ReleaseStore64(&v64, 42)
	assert.Equal(t, uint64(42), AcquireLoad64(&v64))
}

func TestSpinUntilAcquire(t *testing.T) {
	var ready atomic.Bool
	go func() {
		ready.Store(true)
	}()
	SpinUntilAcquire(func() bool { return ready.Load() })
	assert.True(t, ready.Load())
}

func TestIncIfNotZero(t *testing.T) {
	var v atomic.Int64
	v.Store(1)
	require.True(t, IncIfNotZero(&v))
	assert.Equal(t, int64(2), v.Load())

	v.Store(0)
	assert.False(t, IncIfNotZero(&v))
	assert.Equal(t, int64(0), v.Load())
}

func TestIncInRange(t *testing.T) {
	var v atomic.Int64
	v.Store(0)
	for i := 0; i < 8; i++ {
		require.True(t, IncInRange(&v, 0, 8))
	}
	assert.False(t, IncInRange(&v, 0, 8))
	assert.Equal(t, int64(8), v.Load())
}

func TestIncUnlessDecUnless(t *testing.T) {
	var v atomic.Int64
	v.Store(3)
	require.True(t, IncUnless(&v, 0))
	assert.Equal(t, int64(4), v.Load())

	v.Store(0)
	assert.False(t, IncUnless(&v, 0))

	v.Store(1)
	require.True(t, DecUnless(&v, 0))
	assert.Equal(t, int64(0), v.Load())
	assert.False(t, DecUnless(&v, 0))
}
