package sched

// schedOptions holds configuration resolved at scheduler construction.
type schedOptions struct {
	cpuCount     int
	metricsOn    bool
	logger       Logger
	ipi          IPISender
	timer        Timer
	initFS       FSState
	pidTableSize int
}

// SchedOption configures a Scheduler instance.
type SchedOption interface {
	applySched(*schedOptions) error
}

type schedOptionFunc func(*schedOptions) error

func (f schedOptionFunc) applySched(o *schedOptions) error { return f(o) }

// WithCPUCount sets the number of simulated CPUs the scheduler boots.
// Defaults to 1.
func WithCPUCount(n int) SchedOption {
	return schedOptionFunc(func(o *schedOptions) error {
		if n < 1 || n > MaxCPUs {
			return WrapError("WithCPUCount", ErrInvalidArgument)
		}
		o.cpuCount = n
		return nil
	})
}

// WithMetrics enables context-switch/wake-latency and run-queue-depth
// metrics collection (metrics.go). Adds a small amount of bookkeeping to the
// hot context-switch path; disable for latency-sensitive benchmarking.
func WithMetrics(enabled bool) SchedOption {
	return schedOptionFunc(func(o *schedOptions) error {
		o.metricsOn = enabled
		return nil
	})
}

// WithLogger installs a structured logger (schedlog.go's logiface-backed
// implementation, or any other Logger). Defaults to a no-op logger.
func WithLogger(l Logger) SchedOption {
	return schedOptionFunc(func(o *schedOptions) error {
		if l == nil {
			return WrapError("WithLogger", ErrInvalidArgument)
		}
		o.logger = l
		return nil
	})
}

// WithIPISender installs the inter-processor-interrupt collaborator used
// for remote stop/reschedule signaling (spec.md §5, §6).
func WithIPISender(s IPISender) SchedOption {
	return schedOptionFunc(func(o *schedOptions) error {
		o.ipi = s
		return nil
	})
}

// WithTimer installs the timer collaborator used by TIMER/KILLABLE_TIMER
// sleeps.
func WithTimer(t Timer) SchedOption {
	return schedOptionFunc(func(o *schedOptions) error {
		o.timer = t
		return nil
	})
}

// WithInitFS sets the fs state kernel threads inherit (spec.md §4.4
// "kernel_proc_create... inherits the fs state from init").
func WithInitFS(fs FSState) SchedOption {
	return schedOptionFunc(func(o *schedOptions) error {
		o.initFS = fs
		return nil
	})
}

// WithPIDTableCapacity bounds the process table's id space. Defaults to
// 32768.
func WithPIDTableCapacity(n int) SchedOption {
	return schedOptionFunc(func(o *schedOptions) error {
		if n < 1 {
			return WrapError("WithPIDTableCapacity", ErrInvalidArgument)
		}
		o.pidTableSize = n
		return nil
	})
}

func resolveSchedOptions(opts []SchedOption) (*schedOptions, error) {
	cfg := &schedOptions{
		cpuCount:     1,
		logger:       NoOpLogger{},
		pidTableSize: 32768,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applySched(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
