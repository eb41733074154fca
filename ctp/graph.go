package ctp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxEdges is bounded by the edge-status bitmasks in State.
const MaxEdges = 64

var (
	ErrBadHeader = errors.New("ctp: bad graph header")
	ErrBadEdge   = errors.New("ctp: bad edge line")
)

// Edge connects From and To at the given traversal cost; Prob is the
// probability that the edge is open in a sampled weather.
type Edge struct {
	From, To int
	Cost     float64
	Prob     float64
}

// Graph is an undirected weather-uncertain road map. Node 0 is the
// start and the last node is the goal.
type Graph struct {
	numNodes int
	edges    []Edge
	incident [][]int
}

func NewGraph(numNodes int) *Graph {
	if numNodes < 2 {
		panic("ctp: graph needs at least two nodes")
	}
	return &Graph{
		numNodes: numNodes,
		incident: make([][]int, numNodes),
	}
}

// AddEdge registers an undirected edge and returns its index.
func (g *Graph) AddEdge(from, to int, cost, prob float64) int {
	if from < 0 || from >= g.numNodes || to < 0 || to >= g.numNodes || from == to {
		panic("ctp: edge endpoints out of range")
	}
	if cost < 0 || prob <= 0 || prob > 1 {
		panic("ctp: edge cost must be non-negative and probability in (0,1]")
	}
	if len(g.edges) >= MaxEdges {
		panic("ctp: too many edges for bitmask state")
	}
	e := len(g.edges)
	g.edges = append(g.edges, Edge{From: from, To: to, Cost: cost, Prob: prob})
	g.incident[from] = append(g.incident[from], e)
	g.incident[to] = append(g.incident[to], e)
	return e
}

func (g *Graph) NumNodes() int { return g.numNodes }

func (g *Graph) NumEdges() int { return len(g.edges) }

func (g *Graph) Edge(e int) Edge { return g.edges[e] }

// Incident lists the indices of the edges touching node n.
func (g *Graph) Incident(n int) []int { return g.incident[n] }

// Opposite is the endpoint of edge e that is not n.
func (g *Graph) Opposite(e, n int) int {
	edge := g.edges[e]
	if edge.To == n {
		return edge.From
	}
	return edge.To
}

// Parse reads a graph in a small text format: a header line
// "<nodes> <edges>" followed by one "<from> <to> <cost> <prob>" line
// per edge. Blank lines and lines starting with '#' are skipped.
func Parse(r io.Reader) (*Graph, error) {
	scanner := bufio.NewScanner(r)
	var g *Graph
	edges := 0
	want := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if g == nil {
			var nodes int
			if _, err := fmt.Sscanf(line, "%d %d", &nodes, &want); err != nil {
				return nil, fmt.Errorf("%w: %q", ErrBadHeader, line)
			}
			if nodes < 2 || want < 0 || want > MaxEdges {
				return nil, fmt.Errorf("%w: %q", ErrBadHeader, line)
			}
			g = NewGraph(nodes)
			continue
		}
		if edges >= want {
			return nil, fmt.Errorf("%w: more edge lines than announced", ErrBadHeader)
		}
		var from, to int
		var cost, prob float64
		if _, err := fmt.Sscanf(line, "%d %d %g %g", &from, &to, &cost, &prob); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadEdge, line)
		}
		if from < 0 || from >= g.numNodes || to < 0 || to >= g.numNodes ||
			from == to || cost < 0 || prob <= 0 || prob > 1 {
			return nil, fmt.Errorf("%w: %q", ErrBadEdge, line)
		}
		g.AddEdge(from, to, cost, prob)
		edges++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: empty input", ErrBadHeader)
	}
	if edges != want {
		return nil, fmt.Errorf("%w: expected %d edges, got %d", ErrBadHeader, want, edges)
	}
	return g, nil
}
