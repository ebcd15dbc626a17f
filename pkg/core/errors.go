package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEnvironmentClosed is returned by an environment used after Close.
	ErrEnvironmentClosed = errors.New("environment is closed")
	// ErrInvalidEpisodeCount is returned when training is asked for fewer than one episode.
	ErrInvalidEpisodeCount = errors.New("number of episodes must be positive")
)

// UnknownAlgorithmError reports a name missing from the algorithm registry.
type UnknownAlgorithmError struct {
	Name      string
	Available []string
}

func (e *UnknownAlgorithmError) Error() string {
	return fmt.Sprintf("algorithm %q not found, available algorithms: [%s]", e.Name, strings.Join(e.Available, ", "))
}

// UnknownEnvironmentError reports a name the environment provider cannot create.
type UnknownEnvironmentError struct {
	Name      string
	Available []string
}

func (e *UnknownEnvironmentError) Error() string {
	return fmt.Sprintf("environment %q not found, available environments: [%s]", e.Name, strings.Join(e.Available, ", "))
}

// ConfigurationError reports a parameter outside an algorithm's schema.
type ConfigurationError struct {
	Algorithm string
	Parameter string
	Value     float64
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.Algorithm == "" {
		return fmt.Sprintf("parameter %q = %v: %s", e.Parameter, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s: parameter %q = %v: %s", e.Algorithm, e.Parameter, e.Value, e.Reason)
}

type SessionNotFoundError struct {
	ID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.ID)
}

type SessionNotTrainedError struct {
	ID string
}

func (e *SessionNotTrainedError) Error() string {
	return fmt.Sprintf("session %q has not been trained yet", e.ID)
}

// TrainingError is an unrecoverable failure inside an algorithm's learning loop.
type TrainingError struct {
	Algorithm string
	Episode   int
	Err       error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("%s: training failed in episode %d: %v", e.Algorithm, e.Episode, e.Err)
}

func (e *TrainingError) Unwrap() error {
	return e.Err
}
