package ctp

import (
	"fmt"

	"anyplan/problem"
)

// Start is the Current value of the initial state, before the agent
// has been placed on the graph.
const Start = -1

// State is the agent position plus what it has learned about edge
// statuses. Known and Blocked are bitmasks over edge indices; a bit in
// Blocked is meaningful only when the matching Known bit is set.
type State struct {
	Current int
	Known   uint64
	Blocked uint64
}

func (s State) Hash() uint64 {
	h := uint64(s.Current) + 0x9e3779b97f4a7c15
	h ^= s.Known * 0xbf58476d1ce4e5b9
	h ^= s.Blocked * 0x94d049bb133111eb
	return h
}

func (s State) Equal(other problem.State) bool {
	o, ok := other.(State)
	return ok && s == o
}

func (s State) String() string {
	return fmt.Sprintf("(%d,%b,%b)", s.Current, s.Known, s.Blocked)
}

// KnownEdge reports whether edge e has been observed.
func (s State) KnownEdge(e int) bool {
	return s.Known&(1<<uint(e)) != 0
}

// Traversable reports whether edge e may be crossed: an edge is
// non-traversable only once it is known to be blocked.
func (s State) Traversable(e int) bool {
	return s.Blocked&(1<<uint(e)) == 0
}

// withStatus returns a copy of s where edge e is known, and blocked or
// open per the flag.
func (s State) withStatus(e int, blocked bool) State {
	mask := uint64(1) << uint(e)
	s.Known |= mask
	if blocked {
		s.Blocked |= mask
	} else {
		s.Blocked &^= mask
	}
	return s
}
