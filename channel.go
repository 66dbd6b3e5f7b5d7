package sched

import "sync"

// ChannelWaitTable backs spec.md §4.4's sleep_on_chan(chan, lock)/
// wakeup_on_chan(chan): a process parks itself on an arbitrary opaque
// value, and a matching wakeup wakes every process currently waiting on
// that exact value (by equality, spec.md GLOSSARY "Channel sleep"). Keyed
// by `any` so callers can park on a pointer, a pid, or any comparable
// value, exactly like xv6's void* chan argument to sleep()/wakeup().
type ChannelWaitTable struct {
	mu   sync.Mutex
	wait map[any][]*Proc
}

// NewChannelWaitTable creates an empty table.
func NewChannelWaitTable() *ChannelWaitTable {
	return &ChannelWaitTable{wait: make(map[any][]*Proc)}
}

func (t *ChannelWaitTable) register(ch any, p *Proc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.wait[ch] = append(t.wait[ch], p)
}

func (t *ChannelWaitTable) unregister(ch any, p *Proc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	list := t.wait[ch]
	for i, q := range list {
		if q == p {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(t.wait, ch)
	} else {
		t.wait[ch] = list
	}
}

// WaiterCount returns the number of processes currently registered on ch.
// Test-only diagnostic; not part of the sleep/wake protocol itself.
func (t *ChannelWaitTable) WaiterCount(ch any) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.wait[ch])
}

// drain atomically removes and returns every process currently waiting on
// ch, so a second wakeup_on_chan(ch) with no new sleepers is a no-op
// (spec.md §8 S3: "subsequent wakeup_on_chan(&X) is a no-op").
func (t *ChannelWaitTable) drain(ch any) []*Proc {
	t.mu.Lock()
	defer t.mu.Unlock()
	list := t.wait[ch]
	delete(t.wait, ch)
	return list
}

// SleepOnChan implements spec.md §4.4's sleep_on_chan(chan, lock): associate
// the calling process with chan, release lk, and yield into state (normally
// StateInterruptible or StateUninterruptible). lk is reacquired before
// returning, matching scheduler_sleep's "reacquire lk on return" contract.
// Returns the WakeReason left by whichever wakeup call resumed it.
func (s *Scheduler) SleepOnChan(cpu *CPU, p *Proc, ch any, lk *Spinlock, state ProcState) WakeReason {
	p.Lock.Lock()
	p.onChan = ch
	p.flags.Set(FlagOnChan)
	p.state.Store(state)
	p.Lock.Unlock()

	s.channels.register(ch, p)

	lk.Unlock()
	s.Yield(cpu, p.se)
	lk.Lock()

	return p.se.WakeReason()
}

// WakeupOnChan implements spec.md §4.4's wakeup_on_chan(chan): wake every
// process currently parked on ch. A process only remains registered while
// FlagOnChan is set and it hasn't already been individually woken, so a
// racing direct scheduler_wakeup(p) followed by wakeup_on_chan(chan) does
// not double-enqueue it (Wakeup's fast path observes on_rq==1 and returns).
func (s *Scheduler) WakeupOnChan(ch any) {
	for _, p := range s.channels.drain(ch) {
		p.Lock.Lock()
		if p.onChan == ch {
			p.onChan = nil
			p.flags.Clear(FlagOnChan)
		}
		p.Lock.Unlock()
		s.Wakeup(p)
	}
}
