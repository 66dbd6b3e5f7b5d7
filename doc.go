// Package sched implements the core of an SMP-capable kernel process
// scheduler: per-CPU run queues with pluggable scheduling classes, a
// two-layer priority bitmap, the sleep/wake/context-switch protocol that
// keeps the whole thing race-free across CPUs, and the signal-delivery path
// that stops, continues, and terminates processes.
//
// # Architecture
//
// Five layers, built leaves-first:
//
//  1. Atomics ([AcquireLoad32], [ReleaseStore32], [IncIfNotZero], ...) — the
//     ordering primitives everything else relies on.
//  2. Run queues ([RunQueue], [FIFOClass], [IdleClass]) — per (CPU, class)
//     containers, selected in O(1) via a two-layer ready bitmap.
//  3. Scheduling entities and process control blocks ([SchedEntity], [Proc]).
//  4. The context-switch + sleep/wake protocol ([Scheduler.Yield],
//     [Scheduler.Wakeup], and the unexported contextSwitchFinish) — the
//     hardest part: it is the only place that may touch on_rq/on_cpu
//     outside their owning locks.
//  5. Signal delivery and process lifecycle ([Scheduler.SignalSend],
//     [Scheduler.HandleSignal], [Scheduler.Fork], [Scheduler.Exit],
//     [Scheduler.Wait]).
//
// # Concurrency model
//
// There is no global scheduler lock. Each CPU's run queues are guarded by
// their own spinlock; each [SchedEntity] has a pi_lock serializing its wake
// protocol; each process's sigacts has its own lock. The lock order is
// fixed: sleep-queue lock, then PCB lock, then pi_lock, then rq spinlock.
// Violating that order anywhere is a bug, not a style choice.
//
// # Usage
//
//	s, err := sched.NewScheduler(sched.WithCPUCount(4))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.Init(); err != nil {
//	    log.Fatal(err)
//	}
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	if err := s.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package sched
