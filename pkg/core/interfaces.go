package core

import (
	"context"
)

// Environment is a simulated, episodic world with discrete states and actions.
// Each instance is owned by exactly one session.
type Environment interface {
	// Name returns the registered environment name
	Name() string
	// NumStates returns the size of the discrete observation space
	NumStates() int
	// NumActions returns the size of the discrete action space
	NumActions() int
	// Seed returns the seed the environment's random source was created with
	Seed() int64
	// Reset starts a new episode and returns the initial state
	Reset() (int, error)
	// Step applies an action to the current episode
	Step(action int) (StepResult, error)
	// Render returns a snapshot of the current state
	Render() (Frame, error)
	// Close releases the environment. Calling it more than once is a no-op.
	Close() error
}

// EnvironmentProvider creates environments by name
type EnvironmentProvider interface {
	// Create returns a fresh environment or an *UnknownEnvironmentError
	Create(name string, seed *int64) (Environment, error)
	// Available lists every environment name the provider can create
	Available() []string
}

// Algorithm is the capability set every learning algorithm implements.
// Construction binds an instance to one environment and one parameter set.
type Algorithm interface {
	// Train runs exactly numEpisodes episodes, calling progress after each one.
	// Learned state carries over between calls.
	Train(ctx context.Context, numEpisodes int, progress ProgressFunc) error
	// PlayPolicy runs one greedy episode from reset and returns every frame in order
	PlayPolicy(ctx context.Context, step FrameFunc) ([]Frame, error)
	// LearningData returns a snapshot of the learned state for visualization
	LearningData() map[string]any
}

// ProgressFunc is called synchronously after every completed training episode.
// A non-nil return stops training and is returned unchanged by Train.
type ProgressFunc func(update EpisodeUpdate) error

// FrameFunc is called synchronously for every frame produced during playback.
// A non-nil return stops playback and is returned unchanged by PlayPolicy.
type FrameFunc func(frame Frame) error
