package environment

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/boristopalov/rlplayground/pkg/core"
)

const (
	tileStart  = 'S'
	tileFrozen = 'F'
	tileHole   = 'H'
	tileGoal   = 'G'
	tileCliff  = 'C'
	tileFloor  = '.'
)

var (
	errNotReset    = errors.New("environment must be reset before stepping")
	errEpisodeOver = errors.New("episode is over, reset the environment")
)

type move struct {
	name string
	dRow int
	dCol int
}

// transition decides where an action leads from a state. It runs with the
// grid's lock held, so it may use g.rng.
type transition func(g *GridWorld, state, action int) (next int, reward float64, terminated bool)

// gridSpec is the static description of a grid environment
type gridSpec struct {
	name        string
	description string
	layout      []string
	moves       []move
	maxSteps    int
	dynamics    transition
}

// GridWorld is a discrete grid environment. State is row*cols + col.
type GridWorld struct {
	spec    gridSpec
	rows    int
	cols    int
	tiles   []byte
	start   int
	seed    int64
	rng     *rand.Rand
	state   int
	steps   int
	started bool
	done    bool
	closed  bool
	mu      sync.RWMutex
}

func newGridWorld(spec gridSpec, seed int64) *GridWorld {
	rows := len(spec.layout)
	cols := len(spec.layout[0])
	tiles := make([]byte, 0, rows*cols)
	start := 0
	for r, line := range spec.layout {
		for c := 0; c < cols; c++ {
			if line[c] == tileStart {
				start = r*cols + c
			}
			tiles = append(tiles, line[c])
		}
	}
	return &GridWorld{
		spec:  spec,
		rows:  rows,
		cols:  cols,
		tiles: tiles,
		start: start,
		seed:  seed,
		rng:   rand.New(rand.NewSource(seed)),
		state: start,
	}
}

func (g *GridWorld) Name() string    { return g.spec.name }
func (g *GridWorld) NumStates() int  { return g.rows * g.cols }
func (g *GridWorld) NumActions() int { return len(g.spec.moves) }
func (g *GridWorld) Seed() int64     { return g.seed }

// Reset puts the agent back on the start tile
func (g *GridWorld) Reset() (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return 0, core.ErrEnvironmentClosed
	}
	g.state = g.start
	g.steps = 0
	g.started = true
	g.done = false
	return g.state, nil
}

// Step applies one action to the running episode
func (g *GridWorld) Step(action int) (core.StepResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case g.closed:
		return core.StepResult{}, core.ErrEnvironmentClosed
	case !g.started:
		return core.StepResult{}, errNotReset
	case g.done:
		return core.StepResult{}, errEpisodeOver
	case action < 0 || action >= len(g.spec.moves):
		return core.StepResult{}, fmt.Errorf("%s: invalid action %d, expected 0..%d", g.spec.name, action, len(g.spec.moves)-1)
	}

	next, reward, terminated := g.spec.dynamics(g, g.state, action)
	g.state = next
	g.steps++

	result := core.StepResult{
		State:      next,
		Reward:     reward,
		Terminated: terminated,
		Truncated:  !terminated && g.spec.maxSteps > 0 && g.steps >= g.spec.maxSteps,
	}
	g.done = result.Done()
	return result, nil
}

// Render draws the grid with the agent's current position
func (g *GridWorld) Render() (core.Frame, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		return "", core.ErrEnvironmentClosed
	}
	return renderPNG(g.rows, g.cols, g.tiles, g.state)
}

// Close releases the environment; later calls are no-ops
func (g *GridWorld) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

// Closed reports whether Close has been called
func (g *GridWorld) Closed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.closed
}

func (g *GridWorld) tile(state int) byte {
	return g.tiles[state]
}

// shift moves one cell in the given direction, clamped to the grid edges
func (g *GridWorld) shift(state int, m move) int {
	row := state/g.cols + m.dRow
	col := state%g.cols + m.dCol
	row = min(max(row, 0), g.rows-1)
	col = min(max(col, 0), g.cols-1)
	return row*g.cols + col
}
