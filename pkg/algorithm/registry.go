// Package algorithm holds the closed set of learning algorithms and the
// registry that resolves algorithm names to instances.
//
// New algorithms are added by registering a Variant in Default; there is no
// runtime plugin loading.
package algorithm

import (
	"errors"

	"github.com/boristopalov/rlplayground/pkg/core"
)

// Constructor binds a new algorithm instance to an environment and parameters.
// It either returns a fully initialized instance or an error, never both.
type Constructor func(env core.Environment, params core.Parameters) (core.Algorithm, error)

// SchemaFunc returns the parameter schema, optionally tuned for an environment.
// It must be pure.
type SchemaFunc func(environment string) core.ParameterSchema

// Variant is one registered algorithm
type Variant struct {
	Name   string
	New    Constructor
	Schema SchemaFunc
}

// Registry maps algorithm names to variants, preserving registration order
type Registry struct {
	names    []string
	variants map[string]Variant
}

// NewRegistry builds a registry from variants. Later duplicates replace
// earlier ones but keep the first position.
func NewRegistry(variants ...Variant) *Registry {
	r := &Registry{variants: make(map[string]Variant, len(variants))}
	for _, v := range variants {
		if _, exists := r.variants[v.Name]; !exists {
			r.names = append(r.names, v.Name)
		}
		r.variants[v.Name] = v
	}
	return r
}

// Default returns the registry of built-in algorithms
func Default() *Registry {
	return NewRegistry(
		Variant{Name: QLearningName, New: NewQLearning, Schema: QLearningSchema},
		Variant{Name: SARSAName, New: NewSARSA, Schema: SARSASchema},
	)
}

// Available returns every registered name in registration order
func (r *Registry) Available() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Create constructs the named algorithm. Construction errors are returned unchanged.
func (r *Registry) Create(name string, env core.Environment, params core.Parameters) (core.Algorithm, error) {
	v, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, errors.New("algorithm: nil environment")
	}
	return v.New(env, params)
}

// ParameterSchema returns the named algorithm's schema for an environment.
// An empty environment name yields the generic defaults.
func (r *Registry) ParameterSchema(name, environment string) (core.ParameterSchema, error) {
	v, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return v.Schema(environment), nil
}

func (r *Registry) lookup(name string) (Variant, error) {
	v, ok := r.variants[name]
	if !ok {
		return Variant{}, &core.UnknownAlgorithmError{Name: name, Available: r.Available()}
	}
	return v, nil
}
