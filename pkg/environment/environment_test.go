package environment

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/rlplayground/pkg/core"
)

func seed(v int64) *int64 { return &v }

func TestProvider(t *testing.T) {
	p := NewProvider()

	t.Run("lists environments in registration order", func(t *testing.T) {
		assert.Equal(t, []string{"FrozenLake", "FrozenLake8x8", "CliffWalking"}, p.Available())
	})

	t.Run("unknown environment", func(t *testing.T) {
		_, err := p.Create("MountainCar", nil)
		var unknown *core.UnknownEnvironmentError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "MountainCar", unknown.Name)
		assert.Equal(t, p.Available(), unknown.Available)
	})

	t.Run("describe", func(t *testing.T) {
		info, err := p.Describe("CliffWalking")
		require.NoError(t, err)
		assert.Equal(t, 4, info.Rows)
		assert.Equal(t, 12, info.Cols)
		assert.Equal(t, 48, info.NumStates)
		assert.Equal(t, []string{"UP", "RIGHT", "DOWN", "LEFT"}, info.Actions)
	})

	t.Run("preview decodes as png", func(t *testing.T) {
		frame, err := p.Preview("FrozenLake")
		require.NoError(t, err)
		raw, err := base64.StdEncoding.DecodeString(string(frame))
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(raw))
		require.NoError(t, err)
		assert.Equal(t, 4*cellSize, img.Bounds().Dx())
	})
}

func TestGridWorldLifecycle(t *testing.T) {
	env, err := NewProvider().Create("FrozenLake", seed(1))
	require.NoError(t, err)

	_, err = env.Step(0)
	assert.ErrorIs(t, err, errNotReset)

	state, err := env.Reset()
	require.NoError(t, err)
	assert.Equal(t, 0, state)

	_, err = env.Step(7)
	assert.Error(t, err)

	require.NoError(t, env.Close())
	require.NoError(t, env.Close(), "close must be idempotent")
	assert.True(t, env.(*GridWorld).Closed())

	_, err = env.Reset()
	assert.ErrorIs(t, err, core.ErrEnvironmentClosed)
	_, err = env.Render()
	assert.ErrorIs(t, err, core.ErrEnvironmentClosed)
}

func TestFrozenLakeTruncates(t *testing.T) {
	env, err := NewProvider().Create("FrozenLake", seed(3))
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })

	// Pushing LEFT from the start can only slide along the left column, which
	// ends either in the hole at row 3 or at the step limit.
	_, err = env.Reset()
	require.NoError(t, err)
	steps := 0
	for {
		res, err := env.Step(0)
		require.NoError(t, err)
		steps++
		if res.Done() {
			if res.Truncated {
				assert.Equal(t, 100, steps)
			} else {
				assert.Equal(t, 12, res.State)
			}
			break
		}
	}

	_, err = env.Step(0)
	assert.ErrorIs(t, err, errEpisodeOver)
}

func TestFrozenLakeSeedIsReproducible(t *testing.T) {
	run := func() []int {
		env, err := NewProvider().Create("FrozenLake", seed(42))
		require.NoError(t, err)
		defer env.Close()
		_, err = env.Reset()
		require.NoError(t, err)
		var states []int
		for i := 0; i < 20; i++ {
			res, err := env.Step(i % 4)
			require.NoError(t, err)
			states = append(states, res.State)
			if res.Done() {
				break
			}
		}
		return states
	}
	assert.Equal(t, run(), run())
}

func TestCliffWalking(t *testing.T) {
	env, err := NewProvider().Create("CliffWalking", seed(0))
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })

	start, err := env.Reset()
	require.NoError(t, err)
	assert.Equal(t, 36, start)

	// RIGHT from the start falls off the cliff and returns to start
	res, err := env.Step(1)
	require.NoError(t, err)
	assert.Equal(t, core.StepResult{State: 36, Reward: cliffPenalty}, res)

	// UP, eleven times RIGHT, DOWN reaches the goal along the safe path
	total := 0.0
	actions := []int{0}
	for i := 0; i < 11; i++ {
		actions = append(actions, 1)
	}
	actions = append(actions, 2)
	for i, a := range actions {
		res, err = env.Step(a)
		require.NoError(t, err)
		total += res.Reward
		if i < len(actions)-1 {
			assert.False(t, res.Done())
		}
	}
	assert.True(t, res.Terminated)
	assert.Equal(t, 47, res.State)
	assert.Equal(t, -13.0, total)
}
