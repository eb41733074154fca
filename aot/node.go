package aot

import (
	"math"

	"anyplan/problem"
)

// nodeCore holds the scalar fields shared by state and action nodes.
// delta is the signed expansion priority: non-negative on the current
// best policy, negative off it. The membership flags track the
// propagation work-list (inQueue) and the priority queues (inPQ).
type nodeCore struct {
	value        float64
	delta        float64
	nsamples     int
	inBestPolicy bool
	inQueue      bool
	inPQ         bool
}

type node interface {
	core() *nodeCore
	leaf() bool
}

type outcomeLink struct {
	prob float64
	node *stateNode
}

type parentLink struct {
	index int // outcome index within the parent action node
	node  *actionNode
}

// stateNode is an OR node: a concrete state at a given depth. Equal
// (state, depth) pairs are interned, so a state node may have many
// parent action nodes.
type stateNode struct {
	nodeCore
	state      problem.State
	depth      int
	isGoal     bool
	isDeadEnd  bool
	bestAction int // index into children; Noop while a leaf
	parents    []parentLink
	children   []*actionNode
}

func newStateNode(s problem.State, depth int) *stateNode {
	return &stateNode{state: s, depth: depth, bestAction: problem.Noop}
}

func (n *stateNode) core() *nodeCore { return &n.nodeCore }

// A state node is a leaf while it is a dead end or has no expanded
// children. Goal nodes are never leaves; their value is fixed at 0.
func (n *stateNode) leaf() bool {
	return n.isDeadEnd || (!n.isGoal && len(n.children) == 0)
}

// bestActionID maps the best child index back to the problem's action
// identifier.
func (n *stateNode) bestActionID() int {
	if n.bestAction == problem.Noop {
		return problem.Noop
	}
	return n.children[n.bestAction].action
}

func (n *stateNode) updateValue() {
	if n.isGoal {
		panic("aot: updating value of a goal node")
	}
	if n.isDeadEnd {
		return
	}
	n.value = math.Inf(1)
	for i, child := range n.children {
		if child.value < n.value {
			n.value = child.value
			n.bestAction = i
		}
	}
}

// actionNode is an AND node: a state plus a chosen action. It has
// exactly one parent state node and one child per outcome of the
// transition distribution.
type actionNode struct {
	nodeCore
	action     int
	actionCost float64
	parent     *stateNode
	children   []outcomeLink
}

func (n *actionNode) core() *nodeCore { return &n.nodeCore }

func (n *actionNode) leaf() bool { return len(n.children) == 0 }

func (n *actionNode) updateValue(discount float64) {
	expected := 0.0
	for _, c := range n.children {
		expected += c.prob * c.node.value
	}
	n.value = n.actionCost + discount*expected
}
