package algorithm

import "github.com/boristopalov/rlplayground/pkg/core"

type tabularDefaults struct {
	learningRate float64
	discount     float64
	epsilon      float64
	epsilonDecay float64
	maxSteps     float64
}

var genericDefaults = tabularDefaults{
	learningRate: 0.1,
	discount:     0.99,
	epsilon:      0.1,
	epsilonDecay: 1.0,
	maxSteps:     100,
}

// Environment specific defaults. FrozenLake rewards are sparse, so it starts
// fully exploratory and decays; CliffWalking learns fine with a fixed epsilon.
var environmentDefaults = map[string]tabularDefaults{
	"FrozenLake": {
		learningRate: 0.8,
		discount:     0.95,
		epsilon:      1.0,
		epsilonDecay: 0.995,
		maxSteps:     100,
	},
	"FrozenLake8x8": {
		learningRate: 0.8,
		discount:     0.99,
		epsilon:      1.0,
		epsilonDecay: 0.999,
		maxSteps:     200,
	},
	"CliffWalking": {
		learningRate: 0.5,
		discount:     0.99,
		epsilon:      0.1,
		epsilonDecay: 1.0,
		maxSteps:     200,
	},
}

func tabularSchema(environment string) core.ParameterSchema {
	d, ok := environmentDefaults[environment]
	if !ok {
		d = genericDefaults
	}
	return core.ParameterSchema{
		paramLearningRate: {
			Type:        core.ParameterFloat,
			Min:         0.001,
			Max:         1.0,
			Default:     d.learningRate,
			Description: "Learning rate (alpha)",
		},
		paramDiscount: {
			Type:        core.ParameterFloat,
			Min:         0.0,
			Max:         1.0,
			Default:     d.discount,
			Description: "Discount factor (gamma)",
		},
		paramEpsilon: {
			Type:        core.ParameterFloat,
			Min:         0.0,
			Max:         1.0,
			Default:     d.epsilon,
			Description: "Initial exploration rate (epsilon)",
		},
		paramEpsilonDecay: {
			Type:        core.ParameterFloat,
			Min:         0.9,
			Max:         1.0,
			Default:     d.epsilonDecay,
			Description: "Multiplicative epsilon decay applied after each episode",
		},
		paramEpsilonMin: {
			Type:        core.ParameterFloat,
			Min:         0.0,
			Max:         1.0,
			Default:     0.01,
			Description: "Lower bound for epsilon during decay",
		},
		paramMaxSteps: {
			Type:        core.ParameterInt,
			Min:         1,
			Max:         10000,
			Default:     d.maxSteps,
			Description: "Maximum steps per episode",
		},
	}
}
