package policy

import (
	"math"

	"golang.org/x/exp/rand"

	"anyplan/problem"
)

// Evaluate averages nsamples rollouts of pol from s, each of at most
// depth steps, accumulating discounted costs. A rollout that hits a
// dead end is charged the problem's dead-end value and stops.
func Evaluate(p problem.Problem, pol Policy, s problem.State, nsamples, depth int, rng *rand.Rand) float64 {
	if nsamples <= 0 {
		panic("policy: evaluation needs at least one sample")
	}
	total := 0.0
	for i := 0; i < nsamples; i++ {
		total += rollout(p, pol, s, depth, rng)
	}
	return total / float64(nsamples)
}

func rollout(p problem.Problem, pol Policy, s problem.State, depth int, rng *rand.Rand) float64 {
	cost := 0.0
	weight := 1.0
	for step := 0; step < depth && !p.Terminal(s); step++ {
		if p.DeadEnd(s) {
			return cost + weight*p.DeadEndValue()
		}
		a := pol.Decide(s)
		if a == problem.Noop {
			return cost + weight*p.DeadEndValue()
		}
		cost += weight * p.Cost(s, a)
		s, _ = p.Sample(s, a, rng)
		weight *= p.Discount()
	}
	return cost
}

// NewNestedRollout stacks nesting levels of one-step lookahead on top
// of base. Each level estimates action values by width sampled
// successors, each evaluated by a rollout of the level below.
func NewNestedRollout(p problem.Problem, base Policy, width, depth, nesting int, rng *rand.Rand) Policy {
	if width <= 0 || nesting <= 0 {
		panic("policy: nested rollout needs positive width and nesting")
	}
	pol := base
	for level := 0; level < nesting; level++ {
		pol = &rolloutImprovement{problem: p, base: pol, width: width, depth: depth, rng: rng}
	}
	return pol
}

type rolloutImprovement struct {
	problem problem.Problem
	base    Policy
	width   int
	depth   int
	rng     *rand.Rand
}

func (r *rolloutImprovement) Decide(s problem.State) int {
	best := problem.Noop
	bestQ := math.Inf(1)
	for a := 0; a < r.problem.NumberActions(s); a++ {
		if !r.problem.Applicable(s, a) {
			continue
		}
		tail := 0.0
		for i := 0; i < r.width; i++ {
			next, _ := r.problem.Sample(s, a, r.rng)
			tail += Evaluate(r.problem, r.base, next, 1, r.depth, r.rng)
		}
		q := r.problem.Cost(s, a) + r.problem.Discount()*tail/float64(r.width)
		if q < bestQ {
			bestQ = q
			best = a
		}
	}
	if best == problem.Noop {
		return r.base.Decide(s)
	}
	return best
}

func (r *rolloutImprovement) Clone() Policy {
	return &rolloutImprovement{
		problem: r.problem,
		base:    r.base.Clone(),
		width:   r.width,
		depth:   r.depth,
		rng:     r.rng,
	}
}
