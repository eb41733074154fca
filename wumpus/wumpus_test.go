package wumpus

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"anyplan/problem"
)

// testCave is a 3x3 layout: gold at the far corner, a pit in the
// middle, the wumpus on the east edge.
//
//	6 7 8(gold)
//	3 4(pit) 5(wumpus)
//	0 1 2
func testCave() Cave {
	return Cave{Rows: 3, Cols: 3, Pits: 1 << 4, Wumpus: 5, Gold: 8}
}

func TestMovementGeometry(t *testing.T) {
	p := NewProblem(testCave())
	st := p.Init().(State)

	require.Equal(t, 0, st.Position, "Agent starts at the entry")
	require.Equal(t, North, st.Heading, "Agent starts facing north")

	next := p.apply(st, MoveForward)
	require.Equal(t, 3, next.Position, "Moving north from the entry goes up a row")

	next = p.apply(next, TurnRight)
	require.Equal(t, East, next.Heading, "Turning right from north faces east")

	next = p.apply(next, TurnLeft)
	require.Equal(t, North, next.Heading, "Turning left undoes the right turn")
}

func TestWallBlocksForward(t *testing.T) {
	p := NewProblem(testCave())
	st := State{Position: 0, Heading: South, HasArrow: true}

	require.False(t, p.Applicable(st, MoveForward), "Walking into a wall is inapplicable")
	require.True(t, p.Applicable(st, TurnLeft), "Turning is always applicable while alive")
}

func TestPitAndWumpusKill(t *testing.T) {
	p := NewProblem(testCave())

	intoPit := p.apply(State{Position: 1, Heading: North, HasArrow: true, Wumpus: 5}, MoveForward)
	require.True(t, intoPit.Dead, "Stepping into a pit kills the agent")
	require.True(t, p.DeadEnd(intoPit), "A dead agent is a dead end")

	intoWumpus := p.apply(State{Position: 2, Heading: North, HasArrow: true, Wumpus: 5}, MoveForward)
	require.True(t, intoWumpus.Dead, "Walking into the wumpus kills the agent")
}

func TestShootKillsInLine(t *testing.T) {
	p := NewProblem(testCave())
	st := State{Position: 2, Heading: North, HasArrow: true, Wumpus: 5}

	shot := p.apply(st, Shoot)
	require.Equal(t, NoWumpus, shot.Wumpus, "A shot along the column should kill the wumpus")
	require.False(t, shot.HasArrow, "The arrow is spent")
	require.False(t, p.Applicable(shot, Shoot), "No second shot without an arrow")

	miss := p.apply(State{Position: 0, Heading: East, HasArrow: true, Wumpus: 5}, Shoot)
	require.Equal(t, 5, miss.Wumpus, "A shot off line should miss")
}

func TestGrabAndExit(t *testing.T) {
	p := NewProblem(testCave())

	atGold := State{Position: 8, Heading: North, HasArrow: true, Wumpus: 5}
	require.True(t, p.Applicable(atGold, Grab), "Grab applies on the gold cell")
	withGold := p.apply(atGold, Grab)
	require.True(t, withGold.HaveGold, "Grab picks up the gold")
	require.False(t, p.Applicable(withGold, Grab), "Gold can be grabbed once")

	atEntry := withGold
	atEntry.Position = 0
	require.True(t, p.Applicable(atEntry, Exit), "Exit applies at the entry")
	out := p.apply(atEntry, Exit)
	require.True(t, p.Terminal(out), "Exiting with the gold is the goal")
	require.False(t, p.DeadEnd(out), "The goal is not a dead end")

	emptyHanded := State{Position: 0, Heading: North, HasArrow: true, Wumpus: 5}
	out = p.apply(emptyHanded, Exit)
	require.True(t, p.DeadEnd(out), "Exiting without the gold abandons the episode")
}

func TestNextIsSingleOutcome(t *testing.T) {
	p := NewProblem(testCave())
	outcomes := p.Next(p.Init(), TurnRight)

	require.Len(t, outcomes, 1, "Transitions are deterministic")
	require.Equal(t, 1.0, outcomes[0].Prob, "The single outcome is certain")
}

func TestSampleCaveRespectsLayoutRules(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	cave := SampleCave(4, 4, 0.2, rng)

	require.False(t, cave.pit(0), "The entry is never a pit")
	if cave.Wumpus != NoWumpus {
		require.False(t, cave.pit(cave.Wumpus), "The wumpus avoids pits")
		require.NotEqual(t, 0, cave.Wumpus, "The wumpus avoids the entry")
	}
	require.False(t, cave.pit(cave.Gold), "The gold avoids pits")
}

func TestDistanceHeuristic(t *testing.T) {
	p := NewProblem(testCave())
	h := NewDistanceHeuristic(p)

	start := p.Init()
	// Entry to gold is 4 steps, grab, 4 steps back, exit.
	require.Equal(t, 10.0, h.Value(start), "Optimistic estimate walks the waypoints")

	var carried problem.State = State{Position: 0, HaveGold: true, HasArrow: true, Wumpus: 5}
	require.Equal(t, 1.0, h.Value(carried), "Carrying the gold at the entry only needs the exit")
}
