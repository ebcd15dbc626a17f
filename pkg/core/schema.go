package core

import (
	"fmt"
	"math"
	"sort"
)

type ParameterType string

const (
	ParameterFloat ParameterType = "float"
	ParameterInt   ParameterType = "int"
)

// ParameterSpec describes one tunable algorithm parameter
type ParameterSpec struct {
	Type        ParameterType `json:"type" yaml:"type"`
	Min         float64       `json:"min" yaml:"min"`
	Max         float64       `json:"max" yaml:"max"`
	Default     float64       `json:"default" yaml:"default"`
	Description string        `json:"description" yaml:"description"`
}

// ParameterSchema maps parameter names to their specs
type ParameterSchema map[string]ParameterSpec

// Parameters is a concrete parameter set keyed by name
type Parameters map[string]float64

// Clone returns an independent copy
func (p Parameters) Clone() Parameters {
	if p == nil {
		return nil
	}
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Names returns the schema's parameter names in sorted order
func (s ParameterSchema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults returns a parameter set holding every default value
func (s ParameterSchema) Defaults() Parameters {
	out := make(Parameters, len(s))
	for name, spec := range s {
		out[name] = spec.Default
	}
	return out
}

// Resolve checks params against the schema and fills in defaults for missing
// entries. Unknown names, out of range values and non-integral ints are
// reported as *ConfigurationError. The input is never modified.
func (s ParameterSchema) Resolve(algorithm string, params Parameters) (Parameters, error) {
	resolved := s.Defaults()

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := params[name]
		spec, ok := s[name]
		if !ok {
			return nil, &ConfigurationError{Algorithm: algorithm, Parameter: name, Value: value, Reason: "unknown parameter"}
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, &ConfigurationError{Algorithm: algorithm, Parameter: name, Value: value, Reason: "must be a finite number"}
		}
		if value < spec.Min || value > spec.Max {
			return nil, &ConfigurationError{
				Algorithm: algorithm,
				Parameter: name,
				Value:     value,
				Reason:    fmt.Sprintf("out of range [%g, %g]", spec.Min, spec.Max),
			}
		}
		if spec.Type == ParameterInt && value != math.Trunc(value) {
			return nil, &ConfigurationError{Algorithm: algorithm, Parameter: name, Value: value, Reason: "must be an integer"}
		}
		resolved[name] = value
	}
	return resolved, nil
}
