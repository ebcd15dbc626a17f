package algorithm

import "github.com/boristopalov/rlplayground/pkg/core"

const SARSAName = "SARSA"

// SARSA is on-policy TD control: the target uses the action the
// epsilon-greedy policy actually takes next.
type SARSA struct {
	*tabular
}

var _ core.Algorithm = (*SARSA)(nil)

func NewSARSA(env core.Environment, params core.Parameters) (core.Algorithm, error) {
	t, err := newTabular(SARSAName, SARSASchema(env.Name()), env, params, true, func(q []float64, next int) float64 {
		return q[next]
	})
	if err != nil {
		return nil, err
	}
	return &SARSA{tabular: t}, nil
}

func SARSASchema(environment string) core.ParameterSchema {
	schema := tabularSchema(environment)
	lr := schema[paramLearningRate]
	lr.Description = "Learning rate (alpha) for the on-policy update"
	schema[paramLearningRate] = lr
	return schema
}
