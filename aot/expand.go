package aot

import "math"

// Tolerance on the sum of outcome probabilities.
const probTolerance = 1e-6

// expandNext pops a tip from the priority queues and expands it,
// returning the nodes whose values must be propagated.
func (e *Engine) expandNext(toPropagate []node) []node {
	e.stats.Expansions++
	switch n := e.selectFromPriorityQueue().(type) {
	case *stateNode:
		return e.expandState(n, toPropagate)
	case *actionNode:
		return e.expandAction(n, toPropagate, true)
	default:
		panic("aot: unknown node kind")
	}
}

// expandState creates one action node per applicable action. In eager
// mode each action node is expanded immediately; in delayed mode its
// value is estimated by sampled base-policy rollouts instead.
func (e *Engine) expandState(s *stateNode, toPropagate []node) []node {
	if !s.leaf() || s.isDeadEnd {
		panic("aot: expanding a non-tip state node")
	}
	n := e.problem.NumberActions(s.state)
	s.children = make([]*actionNode, 0, n)
	for a := 0; a < n; a++ {
		if !e.problem.Applicable(s.state, a) {
			continue
		}
		e.numNodes++
		child := &actionNode{
			action:     a,
			actionCost: e.problem.Cost(s.state, a),
			parent:     s,
		}
		s.children = append(s.children, child)

		if !e.delayed {
			toPropagate = e.expandAction(child, toPropagate, false)
		} else {
			eval := e.evaluateAction(s.state, a, s.depth+1)
			child.value = child.actionCost + e.problem.Discount()*eval
			child.nsamples = e.delayedNsamples * e.leafNsamples
		}
	}
	if len(s.children) == 0 {
		panic("aot: expanded state has no applicable action")
	}
	return append(toPropagate, s)
}

// expandAction enumerates the full outcome distribution, interning
// child state nodes and linking parents. When the action node was
// picked from a priority queue, sibling action nodes that are still
// leaves get their estimates refreshed with additional rollouts.
func (e *Engine) expandAction(a *actionNode, toPropagate []node, pickedFromQueue bool) []node {
	if !a.leaf() {
		panic("aot: expanding a non-leaf action node")
	}
	parent := a.parent
	if parent.isDeadEnd {
		panic("aot: expanding an action of a dead-end state")
	}

	outcomes := e.problem.Next(parent.state, a.action)
	if len(outcomes) == 0 {
		panic("aot: applicable action has no outcomes")
	}
	sum := 0.0
	expected := 0.0
	a.children = make([]outcomeLink, 0, len(outcomes))
	for i, o := range outcomes {
		sum += o.Prob
		child, reEvaluated := e.fetchNode(o.State, parent.depth+1)
		if reEvaluated {
			toPropagate = append(toPropagate, child)
		}
		child.parents = append(child.parents, parentLink{index: i, node: a})
		a.children = append(a.children, outcomeLink{prob: o.Prob, node: child})
		expected += o.Prob * child.value
	}
	if math.Abs(sum-1) > probTolerance {
		panic("aot: outcome probabilities do not sum to 1")
	}
	a.value = a.actionCost + e.problem.Discount()*expected
	toPropagate = append(toPropagate, a)

	if pickedFromQueue {
		state := parent.state
		depth := parent.depth + 1
		discount := e.problem.Discount()
		for _, sibling := range parent.children {
			if !sibling.leaf() {
				continue
			}
			old := (sibling.value - sibling.actionCost) / discount
			eval := e.evaluateAction(state, sibling.action, depth)
			value := old*float64(sibling.nsamples) + eval
			sibling.nsamples += e.delayedNsamples * e.leafNsamples
			sibling.value = sibling.actionCost + discount*value/float64(sibling.nsamples)
		}
	}
	return toPropagate
}

// propagate pushes a value change bottom-up through the shared DAG.
// The work-list is FIFO and the inQueue flag keeps each state node
// enqueued at most once.
func (e *Engine) propagate(n node) {
	switch n := n.(type) {
	case *stateNode:
		e.propagateState(n)
	case *actionNode:
		if n.parent == nil {
			panic("aot: action node without parent")
		}
		e.propagateState(n.parent)
	default:
		panic("aot: unknown node kind")
	}
}

func (e *Engine) propagateState(seed *stateNode) {
	queue := []*stateNode{seed}
	seed.inQueue = true
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		s.inQueue = false

		old := s.value
		if !s.leaf() {
			s.updateValue()
		}
		if !s.leaf() && s.value == old {
			continue
		}
		for _, p := range s.parents {
			a := p.node
			oldAction := a.value
			a.updateValue(e.problem.Discount())
			if a.value != oldAction && !a.parent.inQueue {
				queue = append(queue, a.parent)
				a.parent.inQueue = true
			}
		}
	}
}
