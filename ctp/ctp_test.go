package ctp

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"anyplan/problem"
)

func chainGraph() *Graph {
	g := NewGraph(3)
	g.AddEdge(0, 1, 1, 1.0)
	g.AddEdge(1, 2, 1, 0.5)
	return g
}

func TestStateEdgeStatus(t *testing.T) {
	s := State{Current: 0}

	require.False(t, s.KnownEdge(3), "Fresh state should know nothing")
	require.True(t, s.Traversable(3), "Unknown edges should count as open")

	s = s.withStatus(3, true)
	require.True(t, s.KnownEdge(3), "Status should be recorded")
	require.False(t, s.Traversable(3), "Known blocked edge should not be traversable")

	s = s.withStatus(3, false)
	require.True(t, s.Traversable(3), "Reopening should clear the blocked bit")
}

func TestInitialStatePlacesAgent(t *testing.T) {
	p := NewProblem(chainGraph())
	init := p.Init()

	require.Equal(t, 1, p.NumberActions(init), "Initial state has a single placement action")
	require.True(t, p.Applicable(init, 0), "Placement action should be applicable")
	require.Equal(t, 0.0, p.Cost(init, 0), "Placement is free")

	outcomes := p.Next(init, 0)
	for _, o := range outcomes {
		st := o.State.(State)
		require.Equal(t, 0, st.Current, "Placement should land on the start node")
		require.True(t, st.KnownEdge(0), "Edges at the start node should be revealed")
	}
}

func TestNextEnumeratesJointOutcomes(t *testing.T) {
	p := NewProblem(chainGraph())
	// Standing at node 0 with edge 0 known open; moving to node 1
	// reveals edge 1.
	s := State{Current: 0, Known: 0b01}

	outcomes := p.Next(s, 0)

	require.Len(t, outcomes, 2, "One unknown incident edge should give two outcomes")
	total := 0.0
	for _, o := range outcomes {
		st := o.State.(State)
		require.Equal(t, 1, st.Current, "All outcomes land at the destination")
		require.True(t, st.KnownEdge(1), "The unknown edge should become known")
		total += o.Prob
	}
	require.InDelta(t, 1.0, total, 1e-12, "Outcome probabilities should sum to 1")
	require.InDelta(t, 0.5, outcomes[0].Prob, 1e-12, "Open outcome carries the edge probability")
}

func TestNextSkipsZeroProbabilityOutcomes(t *testing.T) {
	g := NewGraph(3)
	g.AddEdge(0, 1, 1, 1.0)
	g.AddEdge(1, 2, 1, 1.0)
	p := NewProblem(g)
	s := State{Current: 0, Known: 0b01}

	outcomes := p.Next(s, 0)

	require.Len(t, outcomes, 1, "Certain edges should produce a single outcome")
	require.True(t, outcomes[0].State.(State).Traversable(1), "The certain edge should be open")
}

func TestDeadEndWhenAllEdgesBlocked(t *testing.T) {
	p := NewProblem(chainGraph())
	blocked := State{Current: 1, Known: 0b11, Blocked: 0b11}

	require.True(t, p.DeadEnd(blocked), "All incident edges blocked should be a dead end")
	require.False(t, p.DeadEnd(State{Current: 1, Known: 0b11, Blocked: 0b10}),
		"An open edge should keep the state live")
	require.False(t, p.DeadEnd(State{Current: 2, Known: 0b11, Blocked: 0b11}),
		"The goal is never a dead end")
}

func TestHiddenProblemRevealsWeather(t *testing.T) {
	p := NewProblem(chainGraph())
	h := NewHiddenProblem(p)
	weather := State{Current: 0}
	weather = weather.withStatus(0, false)
	weather = weather.withStatus(1, true)
	h.SetHidden(weather)

	outcomes := h.Next(State{Current: 0, Known: 0b01}, 0)

	require.Len(t, outcomes, 1, "Hidden dynamics should have a single outcome")
	st := outcomes[0].State.(State)
	require.Equal(t, 1, st.Current, "Agent should arrive at the destination")
	require.False(t, st.Traversable(1), "The hidden blocked edge should be revealed")
}

func TestSampleWeatherIsReproducible(t *testing.T) {
	g := chainGraph()
	w1 := SampleWeather(g, rand.New(rand.NewSource(9)))
	w2 := SampleWeather(g, rand.New(rand.NewSource(9)))

	require.Equal(t, w1, w2, "Same seed should sample the same weather")
	require.True(t, w1.KnownEdge(0) && w1.KnownEdge(1), "All edges should get a status")
}

func TestBadWeatherProbabilityBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	sure := NewGraph(2)
	sure.AddEdge(0, 1, 1, 1.0)
	require.Equal(t, 0.0, BadWeatherProbability(sure, 100, rng),
		"A certain edge never strands the agent")

	risky := NewGraph(2)
	risky.AddEdge(0, 1, 1, 0.5)
	got := BadWeatherProbability(risky, 2000, rng)
	require.InDelta(t, 0.5, got, 0.1, "A lone coin-flip edge should strand about half the time")
}

func TestMinDistanceHeuristic(t *testing.T) {
	p := NewProblem(chainGraph())
	h := NewMinDistanceHeuristic(p)

	require.Equal(t, 2.0, h.Value(State{Current: 0}), "Unknown edges count as open")
	require.Equal(t, 0.0, h.Value(State{Current: 2}), "Goal costs nothing")
	require.Equal(t, p.DeadEndValue(), h.Value(State{Current: 0, Known: 0b10, Blocked: 0b10}),
		"Unreachable goal should be valued at the dead-end cost")
}

func TestDistancesIgnoreUnusableEdges(t *testing.T) {
	g := NewGraph(4)
	g.AddEdge(0, 1, 1, 1.0)
	g.AddEdge(1, 3, 1, 1.0)
	g.AddEdge(0, 3, 10, 1.0)

	all := distances(g, 0, func(int) bool { return true })
	require.Equal(t, 2.0, all[3], "Shortest path should go through the middle")
	require.True(t, math.IsInf(all[2], 1), "Disconnected nodes stay unreachable")

	noShortcut := distances(g, 0, func(e int) bool { return e == 2 })
	require.Equal(t, 10.0, noShortcut[3], "Filtered edges should be skipped")
}

func TestParse(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		input := `# tiny chain
3 2
0 1 1 1.0
1 2 1 0.5
`
		g, err := Parse(strings.NewReader(input))
		require.NoError(t, err, "Valid input should parse")
		require.Equal(t, 3, g.NumNodes(), "Node count should match the header")
		require.Equal(t, 2, g.NumEdges(), "Edge count should match the header")
		require.Equal(t, 0.5, g.Edge(1).Prob, "Edge fields should be parsed")
	})

	t.Run("bad header", func(t *testing.T) {
		_, err := Parse(strings.NewReader("chicken\n"))
		require.ErrorIs(t, err, ErrBadHeader, "Junk header should be rejected")
	})

	t.Run("edge count mismatch", func(t *testing.T) {
		_, err := Parse(strings.NewReader("3 2\n0 1 1 1.0\n"))
		require.ErrorIs(t, err, ErrBadHeader, "Missing edges should be rejected")
	})

	t.Run("bad edge line", func(t *testing.T) {
		_, err := Parse(strings.NewReader("3 1\n0 9 1 1.0\n"))
		require.ErrorIs(t, err, ErrBadEdge, "Out-of-range endpoint should be rejected")
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := Parse(strings.NewReader(""))
		require.ErrorIs(t, err, ErrBadHeader, "Empty input should be rejected")
	})
}

func TestStateImplementsProblemState(t *testing.T) {
	var s problem.State = State{Current: 1}
	require.True(t, s.Equal(State{Current: 1}), "Equal states should compare equal")
	require.False(t, s.Equal(State{Current: 2}), "Different states should compare unequal")
}
