package sched

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyMetricsSampleReflectsCount(t *testing.T) {
	l := newLatencyMetrics()
	assert.Equal(t, 0, l.Sample())

	l.Record(10 * time.Millisecond)
	l.Record(20 * time.Millisecond)
	l.Record(30 * time.Millisecond)

	n := l.Sample()
	assert.Equal(t, 3, n)
	assert.Equal(t, 30*time.Millisecond, l.Max)
	assert.Equal(t, 20*time.Millisecond, l.Mean)
}

func TestRunQueueDepthMetricsTracksCurrentMaxAvg(t *testing.T) {
	var q RunQueueDepthMetrics
	q.update(1)
	q.update(5)
	q.update(2)

	current, max, avg := q.Snapshot()
	assert.Equal(t, 2, current)
	assert.Equal(t, 5, max)
	assert.InDelta(t, 1*0.81+5*0.09+2*0.1, avg, 1e-9)
}

func TestSchedMetricsRunQueueDepthKeyedByCPUAndClass(t *testing.T) {
	m := newSchedMetrics()
	assert.Nil(t, m.RunQueueDepth(0, ClassFIFO))

	m.recordDepth(0, ClassFIFO, 3)
	m.recordDepth(1, ClassFIFO, 7)

	d0 := m.RunQueueDepth(0, ClassFIFO)
	require.NotNil(t, d0)
	cur, _, _ := d0.Snapshot()
	assert.Equal(t, 3, cur)

	d1 := m.RunQueueDepth(1, ClassFIFO)
	require.NotNil(t, d1)
	cur1, _, _ := d1.Snapshot()
	assert.Equal(t, 7, cur1)
}

// TestSchedMetricsCountersWiredThroughLiveScheduling boots a real scheduler
// with metrics enabled and a single worker that wakes and immediately exits,
// and checks that the idle loop's continuous context switching and the
// worker's own wakeup both land in the counters Yield/wake.go record into.
func TestSchedMetricsCountersWiredThroughLiveScheduling(t *testing.T) {
	s, err := NewScheduler(WithCPUCount(1), WithMetrics(true))
	require.NoError(t, err)
	require.NoError(t, s.Init())
	require.NotNil(t, s.Metrics())

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() { _ = s.Run(ctx); close(runDone) }()
	t.Cleanup(func() {
		cancel()
		<-runDone
	})

	p, err := s.KernelProcCreate("worker", NewPriority(10, 0), CPUMaskAll(1), func(p *Proc, _, _ any) {
		cpu := s.CurrentCPU(p.se)
		s.Exit(cpu, p, 0, 0)
	}, nil, nil)
	require.NoError(t, err)
	s.Wakeup(p)

	for deadline := time.Now().Add(2 * time.Second); p.State() != StateZombie; {
		if time.Now().After(deadline) {
			t.Fatal("worker never reached zombie state")
		}
		time.Sleep(time.Millisecond)
	}

	m := s.Metrics()
	for deadline := time.Now().Add(2 * time.Second); m.ContextSwitchCount() == 0; {
		if time.Now().After(deadline) {
			t.Fatal("no context switches recorded by the idle loop")
		}
		time.Sleep(time.Millisecond)
	}
	assert.Greater(t, m.ContextSwitch.Sample(), 0)
	assert.GreaterOrEqual(t, m.WakeCount(), int64(1))
}
