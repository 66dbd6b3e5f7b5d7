package sched

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Scheduler is the top-level object wiring together every layer from
// spec.md §2: the CPU/run-queue table, the registered scheduling classes,
// the RCU domain, the channel-sleep table, the process table, and the
// external collaborators (§6). scheduler_init/scheduler_run/scheduler_yield/
// etc. from spec.md §6's operation table are methods on this type.
//
// Booting one goroutine per CPU under an errgroup.Group (rather than a
// plain sync.WaitGroup) gives "first error cancels the rest, join on
// shutdown" semantics: the first CPU loop to
// return an error cancels the shared context and Run reports that error to
// every caller.
type Scheduler struct {
	cpus     *CPUTable
	classes  map[ClassID]SchedClass
	rcu      *RCUDomain
	channels *ChannelWaitTable
	procs    *ProcTable

	metrics *SchedMetrics
	logger  Logger
	ipi     IPISender
	ownsIPI bool
	timer   Timer

	pageAlloc PageAllocator
	slab      SlabCache
	initFS    FSState

	initProc *Proc

	timerTick func()
	timeNow   func() time.Time

	group  *errgroup.Group
	cancel context.CancelFunc

	initialized boolFlag
	shutDown    boolFlag
}

// boolFlag is a tiny CAS-guarded one-way latch used for Scheduler's
// initialized/shutDown flags.
type boolFlag struct{ v atomic.Bool }

// trySet flips the latch from false to true, returning whether this call
// was the one that did it.
func (f *boolFlag) trySet() bool { return f.v.CompareAndSwap(false, true) }

// isSet reports the latch's current value.
func (f *boolFlag) isSet() bool { return f.v.Load() }

// NewScheduler builds a Scheduler from opts. It does not boot any CPUs;
// call Init then Run.
func NewScheduler(opts ...SchedOption) (*Scheduler, error) {
	cfg, err := resolveSchedOptions(opts)
	if err != nil {
		return nil, err
	}

	cpus := NewCPUTable(cfg.cpuCount)

	fifo := NewFIFOClass(cpus)
	classes := map[ClassID]SchedClass{
		ClassFIFO: fifo,
		ClassIdle: IdleClass{},
		ClassExit: ExitClass{},
	}

	s := &Scheduler{
		cpus:      cpus,
		classes:   classes,
		rcu:       NewRCUDomain(cpus),
		channels:  NewChannelWaitTable(),
		procs:     NewProcTable(cfg.pidTableSize),
		logger:    cfg.logger,
		ipi:       cfg.ipi,
		timer:     cfg.timer,
		initFS:    cfg.initFS,
		pageAlloc: &SimplePageAllocator{},
		slab:      NewSimpleSlabCache(),
		timeNow:   time.Now,
	}
	if cfg.metricsOn {
		s.metrics = newSchedMetrics()
	}
	if s.ipi == nil {
		native, err := NewNativeIPISender(cfg.cpuCount)
		if err != nil {
			// Native IPI setup is best-effort infrastructure (wake-fd
			// exhaustion, sandboxing); fall back to the in-memory sender
			// rather than fail scheduler construction over it.
			s.ipi = NewChanIPISender(cfg.cpuCount)
		} else {
			s.ipi = native
		}
		s.ownsIPI = true
	}
	return s, nil
}

// Init implements scheduler_init: allocates the per-CPU idle entity,
// registers it in the IDLE class's rq, and marks every CPU active. Also
// creates the init process (PID 1), the root of the process tree that
// Exit reparents orphans to.
func (s *Scheduler) Init() error {
	if !s.initialized.v.trySet() {
		return WrapError("Scheduler.Init", ErrBusy)
	}

	initProc := NewKernelProc(0, "init", NewPriority(MajorFIFOMin, 0), CPUMaskAll(s.cpus.Len()), s.initFS)
	if _, err := s.procs.Allocate(initProc); err != nil {
		return err
	}
	initProc.se.SetClass(s.classes[ClassFIFO])
	s.initProc = initProc

	for i := 0; i < s.cpus.Len(); i++ {
		cpu := s.cpus.CPU(i)
		idleProc := NewKernelProc(0, "idle", NewPriority(MajorIdle, 0), CPUMask(0).With(i), s.initFS)
		if _, err := s.procs.Allocate(idleProc); err != nil {
			return err
		}
		idleProc.se.SetClass(s.classes[ClassIdle])
		idleProc.state.Store(StateRunning)

		for _, class := range s.classes {
			cpu.RunQueue(class)
		}
		rq := cpu.RunQueue(s.classes[ClassIdle])
		rq.Lock.Lock()
		s.classes[ClassIdle].Enqueue(rq, idleProc.se)
		idleProc.se.onRQ.Store(true)
		rq.Lock.Unlock()

		cpu.idle = idleProc.se
		cpu.current.Store(idleProc.se)
		s.cpus.Activate(i)
	}
	return nil
}

// Run implements scheduler_run: boots one goroutine per active CPU, each
// running that CPU's idle loop (repeatedly calling Yield on behalf of the
// idle entity, which is how this simulation models "HLT until an
// interrupt/wake makes something else ready"). Blocks until ctx is
// canceled or a CPU loop returns an error; Shutdown is a convenience that
// cancels and waits.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.initialized.v.isSet() {
		return ErrSchedulerNotInitialized
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	s.group = g

	for i := 0; i < s.cpus.Len(); i++ {
		cpu := s.cpus.CPU(i)
		g.Go(func() error {
			return s.runCPU(gctx, cpu)
		})
	}
	return g.Wait()
}

func (s *Scheduler) runCPU(ctx context.Context, cpu *CPU) error {
	idle := cpu.idle
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if s.ownsIPI {
			switch sender := s.ipi.(type) {
			case *NativeIPISender:
				sender.Drain(cpu.id)
			case *ChanIPISender:
				sender.Drain(cpu.id)
			}
		}
		s.Yield(cpu, idle)
	}
}

// Shutdown cancels every CPU loop started by Run and waits for them to
// return, releasing any native IPI resources.
func (s *Scheduler) Shutdown() error {
	if !s.shutDown.v.trySet() {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	var err error
	if s.group != nil {
		err = s.group.Wait()
	}
	if native, ok := s.ipi.(*NativeIPISender); ok && s.ownsIPI {
		native.Close()
	}
	return err
}

// Metrics returns the scheduler's metrics collector, or nil if WithMetrics
// was not enabled.
func (s *Scheduler) Metrics() *SchedMetrics { return s.metrics }

// CPUs returns the scheduler's CPU table, for test/collaborator access to
// per-CPU state.
func (s *Scheduler) CPUs() *CPUTable { return s.cpus }

// Procs returns the scheduler's process table.
func (s *Scheduler) Procs() *ProcTable { return s.procs }

// InitProc returns the init process (PID 1), the root of the process
// tree orphans are reparented to.
func (s *Scheduler) InitProc() *Proc { return s.initProc }

// CurrentCPU returns the CPU se is currently (or was most recently)
// scheduled on, per the cpuID Yield stamps onto se before every resume
// handoff. Intended for a KernelProcCreate/Fork entry point that needs to
// call back into cpu-scoped operations (e.g. Yield, SleepOnChan) without
// having been handed the *CPU directly.
func (s *Scheduler) CurrentCPU(se *SchedEntity) *CPU {
	id := se.CPUID()
	if id < 0 || int(id) >= s.cpus.Len() {
		return nil
	}
	return s.cpus.CPU(int(id))
}

// ChannelWaiterCount returns the number of entities currently parked on ch
// via SleepOnChan. Test-only diagnostic: lets a test block until every
// expected sleeper has registered before calling WakeupOnChan, rather than
// racing a counter incremented by the sleeper's own goroutine before
// SleepOnChan's internal registration actually runs.
func (s *Scheduler) ChannelWaiterCount(ch any) int {
	return s.channels.WaiterCount(ch)
}
