package environment

// Actions are ordered LEFT, DOWN, RIGHT, UP so that (a±1) mod 4 are the two
// directions perpendicular to a.
var frozenLakeMoves = []move{
	{name: "LEFT", dRow: 0, dCol: -1},
	{name: "DOWN", dRow: 1, dCol: 0},
	{name: "RIGHT", dRow: 0, dCol: 1},
	{name: "UP", dRow: -1, dCol: 0},
}

var frozenLake4x4 = []string{
	"SFFF",
	"FHFH",
	"FFFH",
	"HFFG",
}

var frozenLake8x8 = []string{
	"SFFFFFFF",
	"FFFFFFFF",
	"FFFHFFFF",
	"FFFFFHFF",
	"FFFHFFFF",
	"FHHFFFHF",
	"FHFFHFHF",
	"FFFHFFFG",
}

func frozenLakeSpec(name string, layout []string, maxSteps int) gridSpec {
	return gridSpec{
		name:        name,
		description: "Cross a slippery frozen lake from S to G without falling into a hole. Each move goes the intended way with probability 1/3 and slides to either side otherwise. Reward 1 on reaching the goal.",
		layout:      layout,
		moves:       frozenLakeMoves,
		maxSteps:    maxSteps,
		dynamics:    slipperyLake,
	}
}

func slipperyLake(g *GridWorld, state, action int) (int, float64, bool) {
	n := len(g.spec.moves)
	// intended, or one of the two perpendicular directions
	actual := (action + g.rng.Intn(3) - 1 + n) % n
	next := g.shift(state, g.spec.moves[actual])

	switch g.tile(next) {
	case tileGoal:
		return next, 1, true
	case tileHole:
		return next, 0, true
	default:
		return next, 0, false
	}
}
