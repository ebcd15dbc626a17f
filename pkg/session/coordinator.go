// Package session owns the process-wide table of training sessions. Each
// session binds one environment to one algorithm instance and moves from
// untrained to trained after its first successful training call.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/boristopalov/rlplayground/pkg/core"
	"github.com/boristopalov/rlplayground/pkg/logging"
)

// Factory creates algorithm instances by name
type Factory interface {
	Create(name string, env core.Environment, params core.Parameters) (core.Algorithm, error)
}

type parameterized interface {
	Parameters() core.Parameters
}

// Info is a read-only view of a session
type Info struct {
	ID              string          `json:"id"`
	AlgorithmName   string          `json:"algorithm"`
	EnvironmentName string          `json:"environment"`
	Parameters      core.Parameters `json:"parameters"`
	Seed            *int64          `json:"seed,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Trained         bool            `json:"trained"`
	EpisodesTrained int             `json:"episodes_trained"`
}

type session struct {
	id              string
	algorithm       core.Algorithm
	environment     core.Environment
	algorithmName   string
	environmentName string
	parameters      core.Parameters
	seed            *int64
	createdAt       time.Time

	mu              sync.RWMutex
	trained         bool
	episodesTrained int
}

func (s *session) info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var seed *int64
	if s.seed != nil {
		v := *s.seed
		seed = &v
	}
	return Info{
		ID:              s.id,
		AlgorithmName:   s.algorithmName,
		EnvironmentName: s.environmentName,
		Parameters:      s.parameters.Clone(),
		Seed:            seed,
		CreatedAt:       s.createdAt,
		Trained:         s.trained,
		EpisodesTrained: s.episodesTrained,
	}
}

// Coordinator manages the lifecycle of every session. It is created once per
// process and emptied by ResetAll. The session table is safe for concurrent
// use; operations on the same session must be serialized by the caller.
type Coordinator struct {
	environments core.EnvironmentProvider
	algorithms   Factory
	logger       *slog.Logger
	newID        func() string

	mu       sync.RWMutex
	sessions map[string]*session
	issued   map[string]struct{} // every id handed out, live or reset
}

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithIDGenerator replaces the uuid based session id generator
func WithIDGenerator(fn func() string) Option {
	return func(c *Coordinator) {
		c.newID = fn
	}
}

func NewCoordinator(environments core.EnvironmentProvider, algorithms Factory, opts ...Option) *Coordinator {
	c := &Coordinator{
		environments: environments,
		algorithms:   algorithms,
		logger:       logging.Discard(),
		newID:        uuid.NewString,
		sessions:     make(map[string]*session),
		issued:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateSession builds an environment and an algorithm bound to it and stores
// them under a fresh id. If the algorithm cannot be built the environment is
// closed before the error is returned.
func (c *Coordinator) CreateSession(ctx context.Context, algorithmName, environmentName string, params core.Parameters, seed *int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	env, err := c.environments.Create(environmentName, seed)
	if err != nil {
		return "", err
	}

	alg, err := c.algorithms.Create(algorithmName, env, params.Clone())
	if err != nil {
		if closeErr := env.Close(); closeErr != nil {
			c.logger.Warn("failed to close environment after algorithm construction failed",
				"environment", environmentName, "error", closeErr)
		}
		return "", err
	}

	// record the resolved parameters, defaults included, when the algorithm exposes them
	parameters := params.Clone()
	if p, ok := alg.(parameterized); ok {
		parameters = p.Parameters()
	}

	var seedCopy *int64
	if seed != nil {
		v := *seed
		seedCopy = &v
	}
	s := &session{
		algorithm:       alg,
		environment:     env,
		algorithmName:   algorithmName,
		environmentName: environmentName,
		parameters:      parameters,
		seed:            seedCopy,
		createdAt:       time.Now(),
	}

	c.mu.Lock()
	for {
		s.id = c.newID()
		if _, taken := c.issued[s.id]; !taken {
			break
		}
	}
	c.issued[s.id] = struct{}{}
	c.sessions[s.id] = s
	c.mu.Unlock()

	c.logger.Info("session created",
		"session_id", s.id, "algorithm", algorithmName, "environment", environmentName)
	return s.id, nil
}

// Train runs the session's algorithm for numEpisodes, forwarding progress
// unchanged. The session is marked trained only if training succeeds.
func (c *Coordinator) Train(ctx context.Context, id string, numEpisodes int, progress core.ProgressFunc) error {
	s, err := c.lookup(id)
	if err != nil {
		return err
	}
	if numEpisodes < 1 {
		return core.ErrInvalidEpisodeCount
	}

	start := time.Now()
	if err := s.algorithm.Train(ctx, numEpisodes, progress); err != nil {
		c.logger.Warn("training failed", "session_id", id, "error", err)
		return err
	}

	s.mu.Lock()
	s.trained = true
	s.episodesTrained += numEpisodes
	total := s.episodesTrained
	s.mu.Unlock()

	c.logger.Info("training completed",
		"session_id", id, "episodes", numEpisodes, "episodes_total", total, "duration", time.Since(start))
	return nil
}

// PlayPolicy replays the learned policy for one episode
func (c *Coordinator) PlayPolicy(ctx context.Context, id string, step core.FrameFunc) ([]core.Frame, error) {
	s, err := c.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	trained := s.trained
	s.mu.RUnlock()
	if !trained {
		return nil, &core.SessionNotTrainedError{ID: id}
	}

	frames, err := s.algorithm.PlayPolicy(ctx, step)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("policy played", "session_id", id, "frames", len(frames))
	return frames, nil
}

// GetSession returns a read-only view of a session
func (c *Coordinator) GetSession(id string) (Info, bool) {
	c.mu.RLock()
	s, ok := c.sessions[id]
	c.mu.RUnlock()
	if !ok {
		return Info{}, false
	}
	return s.info(), true
}

func (c *Coordinator) SessionExists(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sessions[id]
	return ok
}

// Sessions returns views of every live session, oldest first
func (c *Coordinator) Sessions() []Info {
	c.mu.RLock()
	infos := make([]Info, 0, len(c.sessions))
	for _, s := range c.sessions {
		infos = append(infos, s.info())
	}
	c.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// LearningData returns the algorithm's current learning snapshot
func (c *Coordinator) LearningData(id string) (map[string]any, error) {
	s, err := c.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.algorithm.LearningData(), nil
}

// ResetAll closes every environment and removes every session. Every
// environment gets a close attempt; failures are joined into the result.
func (c *Coordinator) ResetAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for id, s := range c.sessions {
		if err := s.environment.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close environment of session %s: %w", id, err))
		}
	}
	n := len(c.sessions)
	c.sessions = make(map[string]*session)

	if n > 0 {
		c.logger.Info("sessions reset", "count", n, "close_errors", len(errs))
	}
	return errors.Join(errs...)
}

func (c *Coordinator) lookup(id string) (*session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, &core.SessionNotFoundError{ID: id}
	}
	return s, nil
}
