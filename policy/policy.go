package policy

import (
	"math"

	"golang.org/x/exp/rand"

	"anyplan/problem"
)

// Policy maps states to applicable actions. Implementations may draw
// from a shared randomness stream; Clone returns an independent policy
// with the same parameters.
type Policy interface {
	Decide(s problem.State) int
	Clone() Policy
}

// Random picks uniformly among the applicable actions.
type Random struct {
	problem problem.Problem
	rng     *rand.Rand
}

func NewRandom(p problem.Problem, rng *rand.Rand) *Random {
	return &Random{problem: p, rng: rng}
}

func (r *Random) Decide(s problem.State) int {
	n := r.problem.NumberActions(s)
	applicable := make([]int, 0, n)
	for a := 0; a < n; a++ {
		if r.problem.Applicable(s, a) {
			applicable = append(applicable, a)
		}
	}
	if len(applicable) == 0 {
		return problem.Noop
	}
	return applicable[r.rng.Intn(len(applicable))]
}

func (r *Random) Clone() Policy {
	return &Random{problem: r.problem, rng: r.rng}
}

// Greedy picks the action minimizing cost plus the discounted expected
// heuristic value of the successor distribution.
type Greedy struct {
	problem   problem.Problem
	heuristic problem.Heuristic
}

func NewGreedy(p problem.Problem, h problem.Heuristic) *Greedy {
	return &Greedy{problem: p, heuristic: h}
}

func (g *Greedy) Decide(s problem.State) int {
	best := problem.Noop
	bestQ := math.Inf(1)
	for a := 0; a < g.problem.NumberActions(s); a++ {
		if !g.problem.Applicable(s, a) {
			continue
		}
		expected := 0.0
		for _, o := range g.problem.Next(s, a) {
			expected += o.Prob * g.heuristic.Value(o.State)
		}
		q := g.problem.Cost(s, a) + g.problem.Discount()*expected
		if q < bestQ {
			bestQ = q
			best = a
		}
	}
	return best
}

func (g *Greedy) Clone() Policy {
	return &Greedy{problem: g.problem, heuristic: g.heuristic}
}
