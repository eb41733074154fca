package aot

import (
	"golang.org/x/exp/rand"

	"anyplan/policy"
	"anyplan/problem"
)

// Default parameters follow the published CTP tuning.
const (
	DefaultWidth                  = 32
	DefaultDepthBound             = 50
	DefaultParameter              = 0.5
	DefaultExpansionsPerIteration = 100
)

type Option func(*Engine)

func WithWidth(width int) Option {
	return func(e *Engine) {
		if width >= 0 {
			e.width = width
		}
	}
}

func WithDepthBound(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.depthBound = depth
		}
	}
}

// WithParameter sets the probability of expanding from the inside
// (policy-improving) queue when both queues are non-empty.
func WithParameter(p float64) Option {
	return func(e *Engine) {
		if p >= 0 && p <= 1 {
			e.parameter = p
		}
	}
}

// WithDelayedEvaluation switches new action nodes between rollout
// estimation (delayed) and immediate full-width expansion (eager).
func WithDelayedEvaluation(delayed bool) Option {
	return func(e *Engine) {
		e.delayed = delayed
	}
}

// WithExpansionsPerIteration sets the batch size between delta
// recomputations; it is also the capacity of each priority queue.
func WithExpansionsPerIteration(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.expansionsPerIteration = n
		}
	}
}

func WithLeafSamples(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.leafNsamples = n
		}
	}
}

func WithDelayedSamples(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.delayedNsamples = n
		}
	}
}

func WithRNG(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// Stats counters are cumulative across calls to Decide, except Nodes,
// which is the node count of the DAG built by the last Decide.
type Stats struct {
	Decisions   int
	Expansions  int
	Evaluations int
	FromInside  int
	FromOutside int
	Nodes       int
}

// Engine is an anytime policy over a shared AND/OR DAG. Each call to
// Decide grows a fresh DAG from the given state, expanding the tips
// most likely to change the greedy action at the root, and returns
// that action once the expansion budget is spent.
type Engine struct {
	problem problem.Problem
	base    policy.Policy

	width                  int
	depthBound             int
	parameter              float64
	delayed                bool
	expansionsPerIteration int
	leafNsamples           int
	delayedNsamples        int
	rng                    *rand.Rand

	table    map[tableKey][]*stateNode
	numNodes int
	root     *stateNode
	inside   *boundedQueue
	outside  *boundedQueue

	stats Stats
}

type tableKey struct {
	hash  uint64
	depth int
}

func New(p problem.Problem, base policy.Policy, options ...Option) *Engine {
	e := &Engine{
		problem:                p,
		base:                   base,
		width:                  DefaultWidth,
		depthBound:             DefaultDepthBound,
		parameter:              DefaultParameter,
		delayed:                true,
		expansionsPerIteration: DefaultExpansionsPerIteration,
		leafNsamples:           1,
		delayedNsamples:        1,
		rng:                    rand.New(rand.NewSource(1)),
	}
	for _, option := range options {
		option(e)
	}
	e.inside = newBoundedQueue(e.expansionsPerIteration)
	e.outside = newBoundedQueue(e.expansionsPerIteration)
	e.table = make(map[tableKey][]*stateNode)
	return e
}

// Clone returns an independent engine with identical parameters and a
// reference to the same base policy and problem.
func (e *Engine) Clone() policy.Policy {
	return New(e.problem, e.base,
		WithWidth(e.width),
		WithDepthBound(e.depthBound),
		WithParameter(e.parameter),
		WithDelayedEvaluation(e.delayed),
		WithExpansionsPerIteration(e.expansionsPerIteration),
		WithLeafSamples(e.leafNsamples),
		WithDelayedSamples(e.delayedNsamples),
		WithRNG(e.rng),
	)
}

// Decide seeds a root at s, runs up to width expansions in batches of
// expansionsPerIteration with a delta recomputation between batches,
// and returns the greedy action at the root. With a zero width it
// delegates to the base policy.
func (e *Engine) Decide(s problem.State) int {
	e.stats.Decisions++
	if e.width == 0 {
		return e.base.Decide(s)
	}

	e.clear()
	root, _ := e.fetchNode(s, 0)
	e.root = root
	if root.isGoal {
		return problem.Noop
	}
	if root.isDeadEnd {
		return e.base.Decide(s)
	}
	e.insertIntoPriorityQueue(root)

	var toPropagate []node
	for expanded := 0; expanded < e.width && !e.emptyPriorityQueues(); {
		for batch := 0; expanded < e.width && batch < e.expansionsPerIteration && !e.emptyPriorityQueues(); batch++ {
			toPropagate = e.expandNext(toPropagate[:0])
			for _, n := range toPropagate {
				e.propagate(n)
			}
			expanded++
		}
		e.clearPriorityQueues()
		e.recomputeDelta(root)
	}

	best := root.bestActionID()
	if best == problem.Noop || !e.problem.Applicable(s, best) {
		panic("aot: no applicable best action at root")
	}
	return best
}

// RootValue is the current lower-bound estimate at the root of the
// last Decide call.
func (e *Engine) RootValue() float64 {
	if e.root == nil {
		panic("aot: no root; call Decide first")
	}
	return e.root.value
}

func (e *Engine) Stats() Stats {
	s := e.stats
	s.Nodes = e.numNodes
	return s
}

func (e *Engine) clear() {
	e.clearPriorityQueues()
	e.table = make(map[tableKey][]*stateNode)
	e.numNodes = 0
	e.root = nil
}

// fetchNode interns state nodes by (state, depth). A hit on a resident
// non-dead-end leaf folds one more evaluation into its estimate and
// reports reEvaluated so the caller can propagate the change.
func (e *Engine) fetchNode(s problem.State, depth int) (n *stateNode, reEvaluated bool) {
	key := tableKey{hash: s.Hash(), depth: depth}
	for _, n := range e.table[key] {
		if !n.state.Equal(s) {
			continue
		}
		if n.leaf() && !n.isDeadEnd {
			value := n.value*float64(n.nsamples) + e.evaluate(s, depth)
			n.nsamples += e.leafNsamples
			n.value = value / float64(n.nsamples)
			return n, true
		}
		return n, false
	}

	n = newStateNode(s, depth)
	e.numNodes++
	terminal := e.problem.Terminal(s)
	if terminal && e.problem.DeadEnd(s) {
		panic("aot: state is both terminal and dead end")
	}
	switch {
	case terminal:
		n.isGoal = true
	case e.problem.DeadEnd(s):
		n.value = e.problem.DeadEndValue()
		n.isDeadEnd = true
	default:
		n.value = e.evaluate(s, depth)
		n.nsamples = e.leafNsamples
	}
	e.table[key] = append(e.table[key], n)
	return n, false
}

// evaluate estimates the cost to go from s by base-policy rollouts of
// length depthBound-depth.
func (e *Engine) evaluate(s problem.State, depth int) float64 {
	e.stats.Evaluations += e.leafNsamples
	if depth >= e.depthBound {
		return 0
	}
	return policy.Evaluate(e.problem, e.base, s, e.leafNsamples, e.depthBound-depth, e.rng)
}

// evaluateAction estimates the cost to go after applying a in s by
// averaging evaluations of sampled successors.
func (e *Engine) evaluateAction(s problem.State, a, depth int) float64 {
	value := 0.0
	for i := 0; i < e.delayedNsamples; i++ {
		next, _ := e.problem.Sample(s, a, e.rng)
		value += e.evaluate(next, depth)
	}
	return value / float64(e.delayedNsamples)
}

func (e *Engine) insertIntoPriorityQueue(n node) {
	c := n.core()
	if c.inPQ {
		return
	}
	q := e.inside
	if c.delta < 0 {
		q = e.outside
	}
	inserted, evicted := q.push(n)
	c.inPQ = inserted
	if evicted {
		removed := q.removedElement()
		if removed == nil || !removed.core().inPQ {
			panic("aot: priority queue eviction desynchronized")
		}
		removed.core().inPQ = false
	}
}

func (e *Engine) selectFromPriorityQueue() node {
	switch {
	case e.inside.empty() && e.outside.empty():
		panic("aot: selecting from empty priority queues")
	case e.inside.empty():
		return e.popOutside()
	case e.outside.empty():
		return e.popInside()
	}
	if e.rng.Float64() < e.parameter {
		return e.popInside()
	}
	return e.popOutside()
}

func (e *Engine) popInside() node {
	n := e.inside.pop()
	e.dropPQFlag(n)
	e.stats.FromInside++
	return n
}

func (e *Engine) popOutside() node {
	n := e.outside.pop()
	e.dropPQFlag(n)
	e.stats.FromOutside++
	return n
}

func (e *Engine) dropPQFlag(n node) {
	if !n.core().inPQ {
		panic("aot: priority queue membership desynchronized")
	}
	n.core().inPQ = false
}

func (e *Engine) emptyPriorityQueues() bool {
	return e.inside.empty() && e.outside.empty()
}

func (e *Engine) clearPriorityQueues() {
	e.drain(e.inside)
	e.drain(e.outside)
}

func (e *Engine) drain(q *boundedQueue) {
	for !q.empty() {
		e.dropPQFlag(q.pop())
	}
}
