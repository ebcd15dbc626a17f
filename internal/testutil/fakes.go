// Package testutil provides in-memory doubles for environments and algorithms.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/boristopalov/rlplayground/pkg/core"
)

// Environment is a one-state environment that counts its lifecycle calls
type Environment struct {
	EnvName  string
	CloseErr error

	mu     sync.Mutex
	closes int
}

var _ core.Environment = (*Environment)(nil)

func (e *Environment) Name() string    { return e.EnvName }
func (e *Environment) NumStates() int  { return 1 }
func (e *Environment) NumActions() int { return 1 }
func (e *Environment) Seed() int64     { return 0 }

func (e *Environment) Reset() (int, error) {
	if e.Closed() {
		return 0, core.ErrEnvironmentClosed
	}
	return 0, nil
}

func (e *Environment) Step(int) (core.StepResult, error) {
	if e.Closed() {
		return core.StepResult{}, core.ErrEnvironmentClosed
	}
	return core.StepResult{Reward: 1, Terminated: true}, nil
}

func (e *Environment) Render() (core.Frame, error) {
	return core.Frame("frame"), nil
}

func (e *Environment) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closes++
	return e.CloseErr
}

// Closes returns how many times Close was called
func (e *Environment) Closes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closes
}

func (e *Environment) Closed() bool {
	return e.Closes() > 0
}

// Provider hands out fake environments and remembers each one it created
type Provider struct {
	Names    []string
	CloseErr map[string]error // per environment name

	mu      sync.Mutex
	created []*Environment
}

var _ core.EnvironmentProvider = (*Provider)(nil)

func (p *Provider) Available() []string {
	return append([]string(nil), p.Names...)
}

func (p *Provider) Create(name string, _ *int64) (core.Environment, error) {
	for _, n := range p.Names {
		if n == name {
			env := &Environment{EnvName: name, CloseErr: p.CloseErr[name]}
			p.mu.Lock()
			p.created = append(p.created, env)
			p.mu.Unlock()
			return env, nil
		}
	}
	return nil, &core.UnknownEnvironmentError{Name: name, Available: p.Available()}
}

// Created returns every environment created so far
func (p *Provider) Created() []*Environment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Environment(nil), p.created...)
}

// Algorithm is a scripted algorithm. TrainErr, when set, is returned from
// every Train call after the callbacks for the completed episodes.
type Algorithm struct {
	Env       core.Environment
	TrainErr  error
	FailAfter int // episodes to complete before returning TrainErr
	Frames    int

	mu       sync.Mutex
	episodes int
}

var _ core.Algorithm = (*Algorithm)(nil)

func (a *Algorithm) Train(ctx context.Context, numEpisodes int, progress core.ProgressFunc) error {
	if numEpisodes < 1 {
		return core.ErrInvalidEpisodeCount
	}
	for i := 0; i < numEpisodes; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if a.TrainErr != nil && i >= a.FailAfter {
			return a.TrainErr
		}
		a.mu.Lock()
		a.episodes++
		episode := a.episodes
		a.mu.Unlock()
		if progress != nil {
			if err := progress(core.EpisodeUpdate{Episode: episode, Reward: 1, Steps: 1, LearningData: a.LearningData(), Frame: "frame"}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Algorithm) PlayPolicy(_ context.Context, step core.FrameFunc) ([]core.Frame, error) {
	n := a.Frames
	if n < 1 {
		n = 3
	}
	frames := make([]core.Frame, 0, n)
	for i := 0; i < n; i++ {
		frame := core.Frame(fmt.Sprintf("frame-%d", i))
		frames = append(frames, frame)
		if step != nil {
			if err := step(frame); err != nil {
				return nil, err
			}
		}
	}
	return frames, nil
}

func (a *Algorithm) LearningData() map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return map[string]any{"episodes": a.episodes}
}

// Factory builds fake algorithms, or fails construction with Err
type Factory struct {
	Names []string
	Err   error
	// Configure, when set, adjusts every algorithm before it is returned
	Configure func(*Algorithm)
}

func (f *Factory) Create(name string, env core.Environment, _ core.Parameters) (core.Algorithm, error) {
	known := false
	for _, n := range f.Names {
		known = known || n == name
	}
	if !known {
		return nil, &core.UnknownAlgorithmError{Name: name, Available: append([]string(nil), f.Names...)}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	alg := &Algorithm{Env: env}
	if f.Configure != nil {
		f.Configure(alg)
	}
	return alg, nil
}
