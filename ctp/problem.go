package ctp

import (
	"golang.org/x/exp/rand"

	"anyplan/problem"
)

const defaultDeadEndValue = 1e4

type ProblemOption func(*Problem)

func WithDiscount(discount float64) ProblemOption {
	return func(p *Problem) {
		if discount > 0 && discount <= 1 {
			p.discount = discount
		}
	}
}

func WithDeadEndValue(value float64) ProblemOption {
	return func(p *Problem) {
		if value > 0 {
			p.deadEndValue = value
		}
	}
}

// Problem is the Canadian Traveler Problem over a weather-uncertain
// graph: travel along open edges from node 0 to the last node,
// learning the status of every edge incident to a node on arrival.
// Actions at a node index its incident edge list; the initial state
// has a single zero-cost action placing the agent at the start.
type Problem struct {
	graph        *Graph
	start        int
	goal         int
	discount     float64
	deadEndValue float64
}

func NewProblem(g *Graph, options ...ProblemOption) *Problem {
	p := &Problem{
		graph:        g,
		start:        0,
		goal:         g.NumNodes() - 1,
		discount:     1,
		deadEndValue: defaultDeadEndValue,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *Problem) Graph() *Graph { return p.graph }

func (p *Problem) Goal() int { return p.goal }

func (p *Problem) Init() problem.State { return State{Current: Start} }

func (p *Problem) NumberActions(s problem.State) int {
	st := p.state(s)
	if st.Current == Start {
		return 1
	}
	return len(p.graph.Incident(st.Current))
}

func (p *Problem) Applicable(s problem.State, a int) bool {
	st := p.state(s)
	if st.Current == Start {
		return a == 0
	}
	return st.Traversable(p.graph.Incident(st.Current)[a])
}

func (p *Problem) Cost(s problem.State, a int) float64 {
	st := p.state(s)
	if st.Current == Start {
		return 0
	}
	return p.graph.Edge(p.graph.Incident(st.Current)[a]).Cost
}

// Next enumerates the 2^k joint outcomes over the unknown edges
// incident to the destination node.
func (p *Problem) Next(s problem.State, a int) []problem.Outcome {
	st := p.state(s)
	toNode := p.destination(st, a)

	var unknown []int
	for _, e := range p.graph.Incident(toNode) {
		if !st.KnownEdge(e) {
			unknown = append(unknown, e)
		}
	}

	k := len(unknown)
	outcomes := make([]problem.Outcome, 0, 1<<uint(k))
	for subset := 0; subset < 1<<uint(k); subset++ {
		next := st
		prob := 1.0
		for j, e := range unknown {
			blocked := subset>>uint(j)&1 == 1
			if blocked {
				prob *= 1 - p.graph.Edge(e).Prob
			} else {
				prob *= p.graph.Edge(e).Prob
			}
			next = next.withStatus(e, blocked)
		}
		next.Current = toNode
		if prob > 0 {
			outcomes = append(outcomes, problem.Outcome{State: next, Prob: prob})
		}
	}
	return outcomes
}

// Sample draws each unknown edge status independently.
func (p *Problem) Sample(s problem.State, a int, rng *rand.Rand) (problem.State, bool) {
	st := p.state(s)
	toNode := p.destination(st, a)
	next := st
	for _, e := range p.graph.Incident(toNode) {
		if st.KnownEdge(e) {
			continue
		}
		next = next.withStatus(e, rng.Float64() >= p.graph.Edge(e).Prob)
	}
	next.Current = toNode
	return next, true
}

func (p *Problem) Terminal(s problem.State) bool {
	return p.state(s).Current == p.goal
}

// DeadEnd holds when every edge at the current node is known blocked.
func (p *Problem) DeadEnd(s problem.State) bool {
	st := p.state(s)
	if st.Current == Start || st.Current == p.goal {
		return false
	}
	for _, e := range p.graph.Incident(st.Current) {
		if st.Traversable(e) {
			return false
		}
	}
	return true
}

func (p *Problem) DeadEndValue() float64 { return p.deadEndValue }

func (p *Problem) Discount() float64 { return p.discount }

func (p *Problem) state(s problem.State) State {
	st, ok := s.(State)
	if !ok {
		panic("ctp: foreign state")
	}
	return st
}

func (p *Problem) destination(st State, a int) int {
	if st.Current == Start {
		if a != 0 {
			panic("ctp: inapplicable initial action")
		}
		return p.start
	}
	return p.graph.Opposite(p.graph.Incident(st.Current)[a], st.Current)
}

// HiddenProblem replays a fixed weather: the same actions and costs,
// but arrival reveals the true status of every edge incident to the
// destination. Used as the closed-loop dynamics when evaluating a
// policy.
type HiddenProblem struct {
	*Problem
	hidden State
}

func NewHiddenProblem(p *Problem) *HiddenProblem {
	return &HiddenProblem{Problem: p}
}

func (h *HiddenProblem) SetHidden(weather State) { h.hidden = weather }

func (h *HiddenProblem) Next(s problem.State, a int) []problem.Outcome {
	st := h.state(s)
	toNode := h.destination(st, a)
	next := st
	for _, e := range h.graph.Incident(toNode) {
		next = next.withStatus(e, !h.hidden.Traversable(e))
	}
	next.Current = toNode
	return []problem.Outcome{{State: next, Prob: 1}}
}

func (h *HiddenProblem) Sample(s problem.State, a int, rng *rand.Rand) (problem.State, bool) {
	return h.Next(s, a)[0].State, true
}

// SampleWeather draws an open/blocked status for every edge.
func SampleWeather(g *Graph, rng *rand.Rand) State {
	weather := State{Current: 0}
	for e := 0; e < g.NumEdges(); e++ {
		weather = weather.withStatus(e, rng.Float64() >= g.Edge(e).Prob)
	}
	return weather
}

// BadWeatherProbability estimates by sampling the probability that the
// goal is unreachable from the start.
func BadWeatherProbability(g *Graph, nsamples int, rng *rand.Rand) float64 {
	bad := 0
	goal := g.NumNodes() - 1
	for i := 0; i < nsamples; i++ {
		weather := SampleWeather(g, rng)
		dist := distances(g, 0, weather.Traversable)
		if dist[goal] == unreachable {
			bad++
		}
	}
	return float64(bad) / float64(nsamples)
}
