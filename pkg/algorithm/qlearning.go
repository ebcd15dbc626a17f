package algorithm

import "github.com/boristopalov/rlplayground/pkg/core"

const QLearningName = "Q-Learning"

// QLearning is off-policy TD control: the target bootstraps from the best
// action in the next state regardless of what the behaviour policy does.
type QLearning struct {
	*tabular
}

var _ core.Algorithm = (*QLearning)(nil)

func NewQLearning(env core.Environment, params core.Parameters) (core.Algorithm, error) {
	t, err := newTabular(QLearningName, QLearningSchema(env.Name()), env, params, false, func(q []float64, _ int) float64 {
		return maxValue(q)
	})
	if err != nil {
		return nil, err
	}
	return &QLearning{tabular: t}, nil
}

func QLearningSchema(environment string) core.ParameterSchema {
	return tabularSchema(environment)
}
