package algorithm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/rlplayground/pkg/core"
	"github.com/boristopalov/rlplayground/pkg/environment"
)

func newEnv(t *testing.T, name string) core.Environment {
	t.Helper()
	seed := int64(42)
	env, err := environment.NewProvider().Create(name, &seed)
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })
	return env
}

func TestRegistry(t *testing.T) {
	r := Default()

	t.Run("lists algorithms in registration order", func(t *testing.T) {
		assert.Equal(t, []string{"Q-Learning", "SARSA"}, r.Available())
	})

	t.Run("creates every registered algorithm", func(t *testing.T) {
		for _, name := range r.Available() {
			alg, err := r.Create(name, newEnv(t, "FrozenLake"), nil)
			require.NoError(t, err, name)
			assert.Implements(t, (*core.Algorithm)(nil), alg)
		}
	})

	t.Run("unknown algorithm lists registered names", func(t *testing.T) {
		_, err := r.Create("DQN", newEnv(t, "FrozenLake"), nil)
		var unknown *core.UnknownAlgorithmError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "DQN", unknown.Name)
		assert.Equal(t, []string{"Q-Learning", "SARSA"}, unknown.Available)

		_, err = r.ParameterSchema("DQN", "")
		assert.True(t, errors.As(err, &unknown))
	})

	t.Run("configuration errors propagate unchanged", func(t *testing.T) {
		_, err := r.Create(QLearningName, newEnv(t, "FrozenLake"), core.Parameters{"learning_rate": 2})
		var cfgErr *core.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "learning_rate", cfgErr.Parameter)
		assert.Equal(t, QLearningName, cfgErr.Algorithm)
	})

	t.Run("nil environment", func(t *testing.T) {
		_, err := r.Create(QLearningName, nil, nil)
		assert.Error(t, err)
	})

	t.Run("registration order survives duplicates", func(t *testing.T) {
		custom := NewRegistry(
			Variant{Name: "b", New: NewQLearning, Schema: QLearningSchema},
			Variant{Name: "a", New: NewSARSA, Schema: SARSASchema},
			Variant{Name: "b", New: NewSARSA, Schema: SARSASchema},
		)
		assert.Equal(t, []string{"b", "a"}, custom.Available())
	})
}

func TestParameterSchemaVariesByEnvironment(t *testing.T) {
	r := Default()

	generic, err := r.ParameterSchema(QLearningName, "")
	require.NoError(t, err)
	lake, err := r.ParameterSchema(QLearningName, "FrozenLake")
	require.NoError(t, err)
	cliff, err := r.ParameterSchema(QLearningName, "CliffWalking")
	require.NoError(t, err)

	assert.Equal(t, 0.1, generic["learning_rate"].Default)
	assert.Equal(t, 0.8, lake["learning_rate"].Default)
	assert.Equal(t, 200.0, cliff["max_steps"].Default)
	assert.Equal(t, core.ParameterInt, cliff["max_steps"].Type)
	assert.ElementsMatch(t, generic.Names(), lake.Names())

	sarsa, err := r.ParameterSchema(SARSAName, "FrozenLake")
	require.NoError(t, err)
	assert.Equal(t, lake["learning_rate"].Default, sarsa["learning_rate"].Default)
}

func TestQLearningFrozenLake(t *testing.T) {
	alg, err := NewQLearning(newEnv(t, "FrozenLake"), core.Parameters{
		"learning_rate": 0.1,
		"discount":      0.99,
		"epsilon":       0.1,
	})
	require.NoError(t, err)

	var episodes []int
	err = alg.Train(context.Background(), 100, func(u core.EpisodeUpdate) error {
		episodes = append(episodes, u.Episode)
		assert.NotEmpty(t, u.Frame)
		assert.Contains(t, u.LearningData, "q_table")
		return nil
	})
	require.NoError(t, err)
	require.Len(t, episodes, 100)
	assert.Equal(t, 1, episodes[0])
	assert.Equal(t, 100, episodes[99])

	var seen int
	frames, err := alg.PlayPolicy(context.Background(), func(core.Frame) error {
		seen++
		return nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, frames)
	assert.Equal(t, len(frames), seen)

	data := alg.LearningData()
	q, ok := data["q_table"].([][]float64)
	require.True(t, ok)
	assert.Len(t, q, 16)
	assert.Len(t, q[0], 4)
	assert.Equal(t, 100, data["episodes"])
}

func TestTrainingContinuesAcrossCalls(t *testing.T) {
	alg, err := NewSARSA(newEnv(t, "FrozenLake"), nil)
	require.NoError(t, err)

	require.NoError(t, alg.Train(context.Background(), 30, nil))
	require.NoError(t, alg.Train(context.Background(), 20, nil))

	data := alg.LearningData()
	assert.Equal(t, 50, data["episodes"])
	assert.Len(t, data["episode_rewards"], 50)
	assert.Less(t, data["epsilon"], 1.0, "epsilon decays across episodes")
}

func TestTrainStopsOnCallbackError(t *testing.T) {
	alg, err := NewQLearning(newEnv(t, "CliffWalking"), nil)
	require.NoError(t, err)

	stop := errors.New("stop")
	calls := 0
	err = alg.Train(context.Background(), 50, func(u core.EpisodeUpdate) error {
		calls++
		if u.Episode == 5 {
			return stop
		}
		return nil
	})
	assert.Same(t, stop, err)
	assert.Equal(t, 5, calls)
	assert.Equal(t, 5, alg.LearningData()["episodes"])
}

func TestTrainRejectsBadInput(t *testing.T) {
	alg, err := NewQLearning(newEnv(t, "FrozenLake"), nil)
	require.NoError(t, err)

	assert.ErrorIs(t, alg.Train(context.Background(), 0, nil), core.ErrInvalidEpisodeCount)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, alg.Train(ctx, 10, nil), context.Canceled)
	assert.Equal(t, 0, alg.LearningData()["episodes"])
}

func TestTrainOnClosedEnvironment(t *testing.T) {
	env := newEnv(t, "FrozenLake")
	alg, err := NewQLearning(env, nil)
	require.NoError(t, err)
	require.NoError(t, env.Close())

	err = alg.Train(context.Background(), 1, nil)
	var trainErr *core.TrainingError
	require.True(t, errors.As(err, &trainErr))
	assert.Equal(t, 1, trainErr.Episode)
	assert.ErrorIs(t, err, core.ErrEnvironmentClosed)
}

func TestCliffWalkingGreedyPolicyReachesGoal(t *testing.T) {
	for _, name := range []string{QLearningName, SARSAName} {
		t.Run(name, func(t *testing.T) {
			alg, err := Default().Create(name, newEnv(t, "CliffWalking"), nil)
			require.NoError(t, err)
			require.NoError(t, alg.Train(context.Background(), 500, nil))

			frames, err := alg.PlayPolicy(context.Background(), nil)
			require.NoError(t, err)
			// CliffWalking only terminates at the goal, so an episode shorter
			// than the step cap means the greedy policy got there.
			assert.Less(t, len(frames), 201)
			assert.GreaterOrEqual(t, len(frames), 14)
		})
	}
}

func TestPlayPolicyStopsOnCallbackError(t *testing.T) {
	alg, err := NewQLearning(newEnv(t, "FrozenLake"), nil)
	require.NoError(t, err)

	stop := errors.New("stop")
	frames, err := alg.PlayPolicy(context.Background(), func(core.Frame) error { return stop })
	assert.Same(t, stop, err)
	assert.Nil(t, frames)
}
