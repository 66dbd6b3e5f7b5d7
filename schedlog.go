package sched

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// StumpyLogger adapts stumpy's compact JSON logiface backend to this
// package's Logger interface, the way logiface-stumpy's own example wires
// stumpy.L.New into a *logiface.Logger[*stumpy.Event]. This is the AMBIENT
// STACK's default structured-logging sink; schedulers built without
// WithLogger fall back to NoOpLogger instead.
type StumpyLogger struct {
	l *logiface.Logger[*stumpy.Event]
}

// NewStumpyLogger builds a Logger backed by stumpy, writing to w.
func NewStumpyLogger(w logiface.Writer[*stumpy.Event]) *StumpyLogger {
	opts := []stumpy.Option{}
	loggerOpts := []logiface.Option[*stumpy.Event]{
		stumpy.L.WithStumpy(opts...),
	}
	if w != nil {
		loggerOpts = append(loggerOpts, stumpy.L.WithWriter(w))
	}
	return &StumpyLogger{l: stumpy.L.New(loggerOpts...)}
}

func (s *StumpyLogger) IsEnabled(level Level) bool {
	return s.l.Level() >= toLogifaceLevel(level)
}

func (s *StumpyLogger) Log(entry LogEntry) {
	b := s.builderFor(entry.Level)
	if b == nil {
		return
	}
	if entry.Category != "" {
		b = b.Str("category", entry.Category)
	}
	if entry.CPUID >= 0 {
		b = b.Int("cpu", entry.CPUID)
	}
	if entry.PID != 0 {
		b = b.Int("pid", int(entry.PID))
	}
	if entry.Signo != 0 {
		b = b.Int("signo", int(entry.Signo))
	}
	if entry.Err != nil {
		b = b.Err(entry.Err)
	}
	for k, v := range entry.Fields {
		b = b.Field(k, v)
	}
	b.Log(entry.Message)
}

func (s *StumpyLogger) builderFor(level Level) *logiface.Builder[*stumpy.Event] {
	switch level {
	case LevelDebug:
		return s.l.Debug()
	case LevelInfo:
		return s.l.Info()
	case LevelWarn:
		return s.l.Warning()
	case LevelError:
		return s.l.Err()
	default:
		return s.l.Info()
	}
}

func toLogifaceLevel(l Level) logiface.Level {
	switch l {
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelWarn:
		return logiface.LevelWarning
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}
