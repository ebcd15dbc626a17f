package core

import (
	"time"
)

// Frame is an opaque renderable snapshot of an environment (a base64 encoded PNG
// for the built-in environments).
type Frame string

// StepResult is the outcome of a single environment step
type StepResult struct {
	State      int
	Reward     float64
	Terminated bool // reached a terminal state
	Truncated  bool // hit the step limit
}

// Done reports whether the episode is over
func (r StepResult) Done() bool {
	return r.Terminated || r.Truncated
}

// EpisodeUpdate is reported after every completed training episode
type EpisodeUpdate struct {
	Episode      int            `json:"episode"` // 1-based, counted across Train calls
	Reward       float64        `json:"reward"`
	Steps        int            `json:"steps"`
	LearningData map[string]any `json:"learning_data"`
	Frame        Frame          `json:"frame"`
}

type ExperimentStatus struct {
	Running   bool
	StartTime time.Time
	EndTime   time.Time
	Errors    []error
}
