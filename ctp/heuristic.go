package ctp

import (
	"container/heap"
	"math"

	"anyplan/problem"
)

var unreachable = math.Inf(1)

// MinDistanceHeuristic is the optimistic shortest-path estimate:
// Dijkstra from the current node to the goal treating every edge not
// known to be blocked as open. Admissible for the undiscounted
// problem; unreachable goals are valued at the dead-end cost.
type MinDistanceHeuristic struct {
	problem *Problem
}

func NewMinDistanceHeuristic(p *Problem) *MinDistanceHeuristic {
	return &MinDistanceHeuristic{problem: p}
}

func (h *MinDistanceHeuristic) Value(s problem.State) float64 {
	st, ok := s.(State)
	if !ok {
		panic("ctp: foreign state")
	}
	from := st.Current
	if from == Start {
		from = 0
	}
	dist := distances(h.problem.graph, from, st.Traversable)
	d := dist[h.problem.goal]
	if d == unreachable {
		return h.problem.deadEndValue
	}
	return d
}

// distances runs Dijkstra from a node over the edges accepted by
// usable.
func distances(g *Graph, from int, usable func(e int) bool) []float64 {
	dist := make([]float64, g.NumNodes())
	for i := range dist {
		dist[i] = unreachable
	}
	dist[from] = 0

	open := &openList{{node: from, dist: 0}}
	for open.Len() > 0 {
		item := heap.Pop(open).(openItem)
		if item.dist > dist[item.node] {
			continue
		}
		for _, e := range g.Incident(item.node) {
			if !usable(e) {
				continue
			}
			to := g.Opposite(e, item.node)
			if d := item.dist + g.Edge(e).Cost; d < dist[to] {
				dist[to] = d
				heap.Push(open, openItem{node: to, dist: d})
			}
		}
	}
	return dist
}

type openItem struct {
	node int
	dist float64
}

type openList []openItem

func (l openList) Len() int           { return len(l) }
func (l openList) Less(i, j int) bool { return l[i].dist < l[j].dist }
func (l openList) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }

func (l *openList) Push(x any) { *l = append(*l, x.(openItem)) }

func (l *openList) Pop() any {
	old := *l
	n := len(old)
	item := old[n-1]
	*l = old[:n-1]
	return item
}
