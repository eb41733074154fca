// Package wumpus is a grid cave with pits, a wumpus, and gold. The
// planner navigates a sampled cave: enter at cell 0, grab the gold,
// and exit from the entry cell without stepping into a pit or the
// wumpus. Transitions are deterministic, which makes the domain a
// useful single-outcome counterpart to the weather-uncertain road
// maps.
package wumpus

import (
	"golang.org/x/exp/rand"

	"anyplan/problem"
)

// Actions.
const (
	MoveForward = iota
	TurnRight
	TurnLeft
	Shoot
	Grab
	Exit
	numActions
)

// Headings.
const (
	North = iota
	East
	South
	West
)

// OutsideCave is the agent position after a successful Exit.
const OutsideCave = -1

// NoWumpus marks a cave or state without a live wumpus.
const NoWumpus = -1

const (
	moveCost     = 1
	shootCost    = 10
	deadEndValue = 1e3
)

// Cave is a fixed layout sampled before planning.
type Cave struct {
	Rows, Cols int
	Pits       uint64 // bitmask over cells
	Wumpus     int    // cell index, NoWumpus if absent
	Gold       int    // cell index
}

// SampleCave draws a layout: each non-entry cell is a pit with
// probability pitProb, and the wumpus and gold land on uniform
// non-entry, non-pit cells.
func SampleCave(rows, cols int, pitProb float64, rng *rand.Rand) Cave {
	if rows*cols > 64 {
		panic("wumpus: cave too large for bitmask")
	}
	cave := Cave{Rows: rows, Cols: cols, Wumpus: NoWumpus}
	var free []int
	for cell := 1; cell < rows*cols; cell++ {
		if rng.Float64() < pitProb {
			cave.Pits |= 1 << uint(cell)
		} else {
			free = append(free, cell)
		}
	}
	if len(free) == 0 {
		// Degenerate sample; leave the gold at the entry.
		cave.Gold = 0
		return cave
	}
	cave.Wumpus = free[rng.Intn(len(free))]
	cave.Gold = free[rng.Intn(len(free))]
	return cave
}

func (c Cave) pit(cell int) bool { return c.Pits&(1<<uint(cell)) != 0 }

// State is the agent configuration inside a fixed cave.
type State struct {
	Position int
	Heading  int
	Wumpus   int // current wumpus cell, NoWumpus once shot
	HaveGold bool
	HasArrow bool
	Dead     bool
}

func (s State) Hash() uint64 {
	h := uint64(s.Position+2)<<16 | uint64(s.Heading)<<8 | uint64(s.Wumpus+2)<<24
	if s.HaveGold {
		h |= 1
	}
	if s.HasArrow {
		h |= 2
	}
	if s.Dead {
		h |= 4
	}
	return h * 0x9e3779b97f4a7c15
}

func (s State) Equal(other problem.State) bool {
	o, ok := other.(State)
	return ok && s == o
}

// Problem plans in a known sampled cave.
type Problem struct {
	cave Cave
}

func NewProblem(cave Cave) *Problem {
	return &Problem{cave: cave}
}

func (p *Problem) Cave() Cave { return p.cave }

func (p *Problem) Init() problem.State {
	return State{Position: 0, Heading: North, Wumpus: p.cave.Wumpus, HasArrow: true}
}

func (p *Problem) NumberActions(s problem.State) int { return numActions }

func (p *Problem) Applicable(s problem.State, a int) bool {
	st := p.state(s)
	if st.Dead || st.Position == OutsideCave {
		return false
	}
	switch a {
	case MoveForward:
		return p.target(st) != st.Position
	case TurnRight, TurnLeft:
		return true
	case Shoot:
		return st.HasArrow
	case Grab:
		return !st.HaveGold && st.Position == p.cave.Gold
	case Exit:
		return st.Position == 0
	}
	return false
}

func (p *Problem) Cost(s problem.State, a int) float64 {
	if a == Shoot {
		return shootCost
	}
	return moveCost
}

func (p *Problem) Next(s problem.State, a int) []problem.Outcome {
	return []problem.Outcome{{State: p.apply(p.state(s), a), Prob: 1}}
}

func (p *Problem) Sample(s problem.State, a int, rng *rand.Rand) (problem.State, bool) {
	return p.apply(p.state(s), a), true
}

func (p *Problem) Terminal(s problem.State) bool {
	st := p.state(s)
	return st.Position == OutsideCave && st.HaveGold
}

func (p *Problem) DeadEnd(s problem.State) bool {
	st := p.state(s)
	return st.Dead || (st.Position == OutsideCave && !st.HaveGold)
}

func (p *Problem) DeadEndValue() float64 { return deadEndValue }

func (p *Problem) Discount() float64 { return 1 }

func (p *Problem) apply(st State, a int) State {
	switch a {
	case MoveForward:
		st.Position = p.target(st)
		if p.cave.pit(st.Position) || st.Position == st.Wumpus {
			st.Dead = true
		}
	case TurnRight:
		st.Heading = (st.Heading + 1) % 4
	case TurnLeft:
		st.Heading = (st.Heading + 3) % 4
	case Shoot:
		st.HasArrow = false
		if st.Wumpus != NoWumpus && p.inLine(st.Position, st.Heading, st.Wumpus) {
			st.Wumpus = NoWumpus
		}
	case Grab:
		st.HaveGold = true
	case Exit:
		st.Position = OutsideCave
	default:
		panic("wumpus: unknown action")
	}
	return st
}

// target is the cell reached by moving forward, or the current cell
// when facing a wall.
func (p *Problem) target(st State) int {
	row := st.Position / p.cave.Cols
	col := st.Position % p.cave.Cols
	switch st.Heading {
	case North:
		if row < p.cave.Rows-1 {
			return (row + 1) * p.cave.Cols + col
		}
	case East:
		if col < p.cave.Cols-1 {
			return row * p.cave.Cols + col + 1
		}
	case South:
		if row > 0 {
			return (row - 1) * p.cave.Cols + col
		}
	case West:
		if col > 0 {
			return row * p.cave.Cols + col - 1
		}
	}
	return st.Position
}

// inLine reports whether a shot from pos along heading hits cell.
func (p *Problem) inLine(pos, heading, cell int) bool {
	row, col := pos/p.cave.Cols, pos%p.cave.Cols
	crow, ccol := cell/p.cave.Cols, cell%p.cave.Cols
	switch heading {
	case North:
		return col == ccol && crow > row
	case East:
		return row == crow && ccol > col
	case South:
		return col == ccol && crow < row
	case West:
		return row == crow && ccol < col
	}
	return false
}

func (p *Problem) state(s problem.State) State {
	st, ok := s.(State)
	if !ok {
		panic("wumpus: foreign state")
	}
	return st
}
