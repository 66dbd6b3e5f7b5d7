package sched

import "fmt"

// Priority is an 8-bit scheduling priority split into a 6-bit major class
// selector and a 2-bit minor intra-class tiebreaker, per spec.md §4.2.
//
//	bit:  7 6 5 4 3 2 1 0
//	      [--major 6b--][minor]
//
// Major=0 is reserved for the EXIT_MAJOR_PRIORITY class (exiting tasks,
// present-but-unused per spec.md §9 Open Question 4). Major=63 is reserved
// for the IDLE class. 1..62 are available to FIFO.
type Priority uint8

const (
	majorShift = 2
	minorMask  = 0x3

	// MajorExit is the reserved major priority for exiting tasks.
	MajorExit uint8 = 0
	// MajorIdle is the reserved major priority for the per-CPU idle entity.
	MajorIdle uint8 = 63
	// MajorFIFOMin and MajorFIFOMax bound the FIFO class's usable majors.
	MajorFIFOMin uint8 = 1
	MajorFIFOMax uint8 = 62

	// NumMajor is the number of major priority levels (fits top8 x secondary64).
	NumMajor = 64
	// NumMinor is the number of minor sub-levels per major.
	NumMinor = 4
)

// NewPriority packs major and minor into a Priority. Panics if either is out
// of range — priority values come from scheduling-class code, never directly
// from untrusted input, so an out-of-range value here is a programmer error.
func NewPriority(major, minor uint8) Priority {
	if major >= NumMajor {
		invariant("priority major %d out of range [0,%d)", major, NumMajor)
	}
	if minor >= NumMinor {
		invariant("priority minor %d out of range [0,%d)", minor, NumMinor)
	}
	return Priority(major<<majorShift | minor)
}

// Major returns the 6-bit major priority (0..63).
func (p Priority) Major() uint8 { return uint8(p) >> majorShift }

// Minor returns the 2-bit minor priority (0..3).
func (p Priority) Minor() uint8 { return uint8(p) & minorMask }

// IsExit reports whether p belongs to the reserved exit class.
func (p Priority) IsExit() bool { return p.Major() == MajorExit }

// IsIdle reports whether p belongs to the reserved idle class.
func (p Priority) IsIdle() bool { return p.Major() == MajorIdle }

// IsFIFO reports whether p falls within the FIFO class's usable major range.
func (p Priority) IsFIFO() bool {
	return p.Major() >= MajorFIFOMin && p.Major() <= MajorFIFOMax
}

func (p Priority) String() string {
	return fmt.Sprintf("(major=%d,minor=%d)", p.Major(), p.Minor())
}
