package environment

var cliffWalkingMoves = []move{
	{name: "UP", dRow: -1, dCol: 0},
	{name: "RIGHT", dRow: 0, dCol: 1},
	{name: "DOWN", dRow: 1, dCol: 0},
	{name: "LEFT", dRow: 0, dCol: -1},
}

var cliffWalkingLayout = []string{
	"............",
	"............",
	"............",
	"SCCCCCCCCCCG",
}

const cliffPenalty = -100

func cliffWalkingSpec() gridSpec {
	return gridSpec{
		name:        "CliffWalking",
		description: "Walk from S to G along the edge of a cliff. Every step costs -1; stepping onto the cliff costs -100 and sends the agent back to the start.",
		layout:      cliffWalkingLayout,
		moves:       cliffWalkingMoves,
		maxSteps:    200,
		dynamics:    cliffWalk,
	}
}

func cliffWalk(g *GridWorld, state, action int) (int, float64, bool) {
	next := g.shift(state, g.spec.moves[action])

	switch g.tile(next) {
	case tileCliff:
		return g.start, cliffPenalty, false
	case tileGoal:
		return next, -1, true
	default:
		return next, -1, false
	}
}
