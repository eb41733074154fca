package policy

import (
	"math"

	"golang.org/x/exp/rand"

	"anyplan/problem"
)

// UCT improves a base policy by UCB1 tree search: width simulations
// per decision, base-policy rollouts at unvisited nodes, and action
// selection by minimum estimated cost. The exploration bonus is added
// to the cost estimate, so a negative coefficient favors less-visited
// actions under min selection.
type UCT struct {
	problem   problem.Problem
	base      Policy
	width     int
	depth     int
	parameter float64
	rng       *rand.Rand

	table map[uctKey][]*uctNode
}

type uctKey struct {
	hash  uint64
	depth int
}

type uctNode struct {
	state  problem.State
	visits int
	counts []int
	values []float64
}

func NewUCT(p problem.Problem, base Policy, width, depth int, parameter float64, rng *rand.Rand) *UCT {
	return &UCT{
		problem:   p,
		base:      base,
		width:     width,
		depth:     depth,
		parameter: parameter,
		rng:       rng,
	}
}

func (u *UCT) Decide(s problem.State) int {
	if u.width == 0 {
		return u.base.Decide(s)
	}
	u.table = make(map[uctKey][]*uctNode)
	for i := 0; i < u.width; i++ {
		u.simulate(s, 0)
	}
	root := u.fetch(s, 0)

	best := problem.Noop
	bestQ := math.Inf(1)
	for a := 0; a < len(root.counts); a++ {
		if root.counts[a] == 0 {
			continue
		}
		if root.values[a] < bestQ {
			bestQ = root.values[a]
			best = a
		}
	}
	if best == problem.Noop {
		return u.base.Decide(s)
	}
	return best
}

func (u *UCT) Clone() Policy {
	return NewUCT(u.problem, u.base, u.width, u.depth, u.parameter, u.rng)
}

func (u *UCT) simulate(s problem.State, depth int) float64 {
	if depth >= u.depth || u.problem.Terminal(s) {
		return 0
	}
	if u.problem.DeadEnd(s) {
		return u.problem.DeadEndValue()
	}

	node := u.fetch(s, depth)
	if node.visits == 0 {
		node.visits++
		return Evaluate(u.problem, u.base, s, 1, u.depth-depth, u.rng)
	}

	a := u.selectAction(node)
	next, _ := u.problem.Sample(s, a, u.rng)
	cost := u.problem.Cost(s, a) + u.problem.Discount()*u.simulate(next, depth+1)

	node.visits++
	node.counts[a]++
	node.values[a] += (cost - node.values[a]) / float64(node.counts[a])
	return cost
}

func (u *UCT) selectAction(node *uctNode) int {
	// Untried applicable actions go first.
	for a := 0; a < len(node.counts); a++ {
		if node.counts[a] == 0 && u.problem.Applicable(node.state, a) {
			return a
		}
	}

	best := problem.Noop
	bestScore := math.Inf(1)
	logN := math.Log(float64(node.visits))
	for a := 0; a < len(node.counts); a++ {
		if node.counts[a] == 0 {
			continue
		}
		bonus := u.parameter * math.Sqrt(2*logN/float64(node.counts[a]))
		score := node.values[a] + bonus
		if score < bestScore {
			bestScore = score
			best = a
		}
	}
	if best == problem.Noop {
		panic("policy: UCT selection found no visited action")
	}
	return best
}

func (u *UCT) fetch(s problem.State, depth int) *uctNode {
	key := uctKey{hash: s.Hash(), depth: depth}
	for _, n := range u.table[key] {
		if n.state.Equal(s) {
			return n
		}
	}
	n := &uctNode{
		state:  s,
		counts: make([]int, u.problem.NumberActions(s)),
		values: make([]float64, u.problem.NumberActions(s)),
	}
	u.table[key] = append(u.table[key], n)
	return n
}
