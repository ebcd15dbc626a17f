package environment

import (
	"time"

	"github.com/boristopalov/rlplayground/pkg/core"
)

// Info describes a registered environment
type Info struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Rows        int      `json:"rows"`
	Cols        int      `json:"cols"`
	NumStates   int      `json:"num_states"`
	NumActions  int      `json:"num_actions"`
	Actions     []string `json:"actions"`
	Layout      []string `json:"layout"`
	MaxSteps    int      `json:"max_steps"`
}

// Provider creates environments from a fixed set of registered grid specs
type Provider struct {
	names []string
	specs map[string]gridSpec
}

var _ core.EnvironmentProvider = (*Provider)(nil)

// NewProvider returns a provider with every built-in environment registered
func NewProvider() *Provider {
	p := &Provider{specs: make(map[string]gridSpec)}
	p.register(frozenLakeSpec("FrozenLake", frozenLake4x4, 100))
	p.register(frozenLakeSpec("FrozenLake8x8", frozenLake8x8, 200))
	p.register(cliffWalkingSpec())
	return p
}

func (p *Provider) register(spec gridSpec) {
	p.names = append(p.names, spec.name)
	p.specs[spec.name] = spec
}

// Available returns the environment names in registration order
func (p *Provider) Available() []string {
	names := make([]string, len(p.names))
	copy(names, p.names)
	return names
}

// Create builds a new environment. A nil seed derives one from the clock.
func (p *Provider) Create(name string, seed *int64) (core.Environment, error) {
	spec, ok := p.specs[name]
	if !ok {
		return nil, &core.UnknownEnvironmentError{Name: name, Available: p.Available()}
	}
	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}
	return newGridWorld(spec, s), nil
}

// Describe returns the static description of an environment
func (p *Provider) Describe(name string) (Info, error) {
	spec, ok := p.specs[name]
	if !ok {
		return Info{}, &core.UnknownEnvironmentError{Name: name, Available: p.Available()}
	}
	actions := make([]string, len(spec.moves))
	for i, m := range spec.moves {
		actions[i] = m.name
	}
	layout := make([]string, len(spec.layout))
	copy(layout, spec.layout)

	rows, cols := len(spec.layout), len(spec.layout[0])
	return Info{
		Name:        spec.name,
		Description: spec.description,
		Rows:        rows,
		Cols:        cols,
		NumStates:   rows * cols,
		NumActions:  len(spec.moves),
		Actions:     actions,
		Layout:      layout,
		MaxSteps:    spec.maxSteps,
	}, nil
}

// Preview renders the reset state of an environment using a throwaway instance
func (p *Provider) Preview(name string) (core.Frame, error) {
	var seed int64
	env, err := p.Create(name, &seed)
	if err != nil {
		return "", err
	}
	defer env.Close()

	if _, err := env.Reset(); err != nil {
		return "", err
	}
	return env.Render()
}
