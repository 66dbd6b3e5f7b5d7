package sched

import (
	"sync"
	"sync/atomic"
	"time"
)

// This file adapts the teacher's event-loop Metrics (metrics.go: latency
// percentiles via P², queue-depth EMAs, a rolling TPS counter) to the
// scheduler-relevant numbers the SPEC_FULL ambient stack calls for:
// context-switch latency, wake latency, and per-(CPU,class) run-queue
// depth, instead of task/microtask timings and ingress queue depth.

// LatencyMetrics tracks a latency distribution via the streaming P²
// estimator, reporting P50/P90/P95/P99/Max/Mean the same way the teacher's
// LatencyMetrics does for task execution time.
type LatencyMetrics struct {
	mu    sync.Mutex
	qs    *quantileSet
	count int

	P50, P90, P95, P99, Max, Mean time.Duration
}

func newLatencyMetrics() *LatencyMetrics {
	return &LatencyMetrics{qs: newQuantileSet(0.50, 0.90, 0.95, 0.99)}
}

// Record adds a latency sample. O(1).
func (l *LatencyMetrics) Record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.qs.Update(float64(d))
	l.count++
}

// Sample refreshes the cached percentile fields from the estimator and
// returns the number of samples observed so far.
func (l *LatencyMetrics) Sample() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count == 0 {
		return 0
	}
	l.P50 = time.Duration(l.qs.Quantile(0))
	l.P90 = time.Duration(l.qs.Quantile(1))
	l.P95 = time.Duration(l.qs.Quantile(2))
	l.P99 = time.Duration(l.qs.Quantile(3))
	l.Max = time.Duration(l.qs.Max())
	l.Mean = time.Duration(l.qs.Mean())
	return l.count
}

// RunQueueDepthMetrics tracks current/max/EMA depth for one (CPU, class)
// run queue, mirroring the teacher's QueueMetrics shape (current/max/EMA
// per named queue) but keyed per run queue instead of per event-loop stage.
type RunQueueDepthMetrics struct {
	mu      sync.RWMutex
	current int
	max     int
	avg     float64
	avgWarm bool
}

func (q *RunQueueDepthMetrics) update(depth int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.current = depth
	if depth > q.max {
		q.max = depth
	}
	if !q.avgWarm {
		q.avg = float64(depth)
		q.avgWarm = true
	} else {
		q.avg = 0.9*q.avg + 0.1*float64(depth)
	}
}

// Snapshot returns the current/max/average depth.
func (q *RunQueueDepthMetrics) Snapshot() (current, max int, avg float64) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.current, q.max, q.avg
}

// rqMetricsKey identifies one (CPU, class) run queue for the depth map.
type rqMetricsKey struct {
	cpu   int
	class ClassID
}

// SchedMetrics is the Scheduler's metrics collector, installed via
// WithMetrics. It is allocated only when metrics are enabled; otherwise
// Scheduler.metrics is nil and the hot path skips every recording call (the same
// "pay only if enabled" discipline as the teacher's Metrics/WithMetrics).
type SchedMetrics struct {
	ContextSwitch *LatencyMetrics
	WakeLatency   *LatencyMetrics

	mu     sync.RWMutex
	depths map[rqMetricsKey]*RunQueueDepthMetrics

	contextSwitches atomic.Int64
	wakeups         atomic.Int64
	raceFixEnqueues atomic.Int64
}

func newSchedMetrics() *SchedMetrics {
	return &SchedMetrics{
		ContextSwitch: newLatencyMetrics(),
		WakeLatency:   newLatencyMetrics(),
		depths:        make(map[rqMetricsKey]*RunQueueDepthMetrics),
	}
}

func (m *SchedMetrics) recordContextSwitch(d time.Duration) {
	m.ContextSwitch.Record(d)
	m.contextSwitches.Add(1)
}

func (m *SchedMetrics) recordWake(d time.Duration) {
	m.WakeLatency.Record(d)
	m.wakeups.Add(1)
}

func (m *SchedMetrics) recordRaceFixEnqueue() { m.raceFixEnqueues.Add(1) }

func (m *SchedMetrics) recordDepth(cpu int, class ClassID, depth int) {
	key := rqMetricsKey{cpu, class}
	m.mu.RLock()
	d, ok := m.depths[key]
	m.mu.RUnlock()
	if !ok {
		m.mu.Lock()
		d, ok = m.depths[key]
		if !ok {
			d = &RunQueueDepthMetrics{}
			m.depths[key] = d
		}
		m.mu.Unlock()
	}
	d.update(depth)
}

// RunQueueDepth returns the depth metrics for one (CPU, class) run queue,
// or nil if it has never been recorded.
func (m *SchedMetrics) RunQueueDepth(cpu int, class ClassID) *RunQueueDepthMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.depths[rqMetricsKey{cpu, class}]
}

// ContextSwitchCount returns the total number of context switches recorded.
func (m *SchedMetrics) ContextSwitchCount() int64 { return m.contextSwitches.Load() }

// WakeCount returns the total number of wakeups recorded.
func (m *SchedMetrics) WakeCount() int64 { return m.wakeups.Load() }

// RaceFixEnqueueCount returns how many times the context_switch_finish
// race-fix path (spec.md §4.4 step e) had to re-enqueue prev itself, rather
// than observing that a concurrent waker already had.
func (m *SchedMetrics) RaceFixEnqueueCount() int64 { return m.raceFixEnqueues.Load() }
