package problem

import "golang.org/x/exp/rand"

// Noop is the action returned when no action applies, e.g. when a
// planner is asked to decide at a goal state.
const Noop = -1

// State is an opaque problem state. Hash need not be collision free;
// Equal resolves collisions.
type State interface {
	Hash() uint64
	Equal(State) bool
}

// Outcome is one entry of a transition distribution.
type Outcome struct {
	State State
	Prob  float64
}

// Problem is a finite-horizon stochastic shortest-path problem.
// Actions at a state are indexed 0..NumberActions-1. Calling Cost,
// Next or Sample with an inapplicable action is a programming error;
// callers must filter by Applicable first.
type Problem interface {
	Init() State

	NumberActions(s State) int
	Applicable(s State, a int) bool
	Cost(s State, a int) float64

	// Next enumerates the full support of the transition distribution:
	// every outcome has positive probability, probabilities sum to 1,
	// and outcome states are pairwise distinct.
	Next(s State, a int) []Outcome

	// Sample draws a single outcome of applying a in s.
	Sample(s State, a int, rng *rand.Rand) (State, bool)

	Terminal(s State) bool
	DeadEnd(s State) bool

	// DeadEndValue is the cost assigned to dead-end states; it caps
	// the value of unreachable goals in undiscounted problems.
	DeadEndValue() float64

	// Discount is in (0, 1].
	Discount() float64
}

// Heuristic estimates the cost to go from a state.
type Heuristic interface {
	Value(s State) float64
}
