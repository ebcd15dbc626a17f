package algorithm

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/boristopalov/rlplayground/pkg/core"
	"github.com/boristopalov/rlplayground/pkg/memory"
)

const (
	paramLearningRate = "learning_rate"
	paramDiscount     = "discount"
	paramEpsilon      = "epsilon"
	paramEpsilonDecay = "epsilon_decay"
	paramEpsilonMin   = "epsilon_min"
	paramMaxSteps     = "max_steps"

	rewardHistoryCapacity = 1000
	meanRewardWindow      = 100
)

// bootstrapFunc returns the value of the successor state used in the TD target
type bootstrapFunc func(q []float64, nextAction int) float64

// tabular is an epsilon-greedy learner over a Q table. Variants differ only
// in how the successor state is valued and whether the next action is drawn
// before the update.
type tabular struct {
	name      string
	env       core.Environment
	params    core.Parameters
	onPolicy  bool
	bootstrap bootstrapFunc

	alpha        float64
	gamma        float64
	epsilon      float64
	epsilonDecay float64
	epsilonMin   float64
	maxSteps     int

	q        [][]float64
	rng      *rand.Rand
	rewards  *memory.RewardHistory
	episodes int
	mu       sync.RWMutex
}

func newTabular(name string, schema core.ParameterSchema, env core.Environment, params core.Parameters, onPolicy bool, bootstrap bootstrapFunc) (*tabular, error) {
	resolved, err := schema.Resolve(name, params)
	if err != nil {
		return nil, err
	}
	if env.NumStates() < 1 || env.NumActions() < 1 {
		return nil, fmt.Errorf("%s: environment %s has no discrete states or actions", name, env.Name())
	}

	q := make([][]float64, env.NumStates())
	for s := range q {
		q[s] = make([]float64, env.NumActions())
	}

	return &tabular{
		name:         name,
		env:          env,
		params:       resolved,
		onPolicy:     onPolicy,
		bootstrap:    bootstrap,
		alpha:        resolved[paramLearningRate],
		gamma:        resolved[paramDiscount],
		epsilon:      resolved[paramEpsilon],
		epsilonDecay: resolved[paramEpsilonDecay],
		epsilonMin:   resolved[paramEpsilonMin],
		maxSteps:     int(resolved[paramMaxSteps]),
		q:            q,
		rng:          rand.New(rand.NewSource(env.Seed())),
		rewards:      memory.NewRewardHistory(rewardHistoryCapacity),
	}, nil
}

// Parameters returns the resolved parameter set including defaults
func (t *tabular) Parameters() core.Parameters {
	return t.params.Clone()
}

func (t *tabular) Train(ctx context.Context, numEpisodes int, progress core.ProgressFunc) error {
	if numEpisodes < 1 {
		return core.ErrInvalidEpisodeCount
	}

	for i := 0; i < numEpisodes; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		reward, steps, err := t.runEpisode()
		if err != nil {
			return &core.TrainingError{Algorithm: t.name, Episode: t.episodes + 1, Err: err}
		}

		t.mu.Lock()
		t.episodes++
		episode := t.episodes
		if t.epsilon > t.epsilonMin {
			t.epsilon = max(t.epsilonMin, t.epsilon*t.epsilonDecay)
		}
		t.mu.Unlock()
		t.rewards.Store(reward)

		if progress == nil {
			continue
		}
		frame, err := t.env.Render()
		if err != nil {
			return &core.TrainingError{Algorithm: t.name, Episode: episode, Err: err}
		}
		if err := progress(core.EpisodeUpdate{
			Episode:      episode,
			Reward:       reward,
			Steps:        steps,
			LearningData: t.LearningData(),
			Frame:        frame,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (t *tabular) runEpisode() (float64, int, error) {
	state, err := t.env.Reset()
	if err != nil {
		return 0, 0, err
	}

	total := 0.0
	action := t.explore(state)
	for steps := 1; ; steps++ {
		res, err := t.env.Step(action)
		if err != nil {
			return total, steps, err
		}
		total += res.Reward

		var next int
		if t.onPolicy {
			next = t.explore(res.State)
			t.learn(state, action, res, next)
		} else {
			t.learn(state, action, res, -1)
			next = t.explore(res.State)
		}

		if res.Done() || steps >= t.maxSteps {
			return total, steps, nil
		}
		state, action = res.State, next
	}
}

// learn applies the TD update for one transition
func (t *tabular) learn(state, action int, res core.StepResult, nextAction int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	target := res.Reward
	if !res.Terminated {
		target += t.gamma * t.bootstrap(t.q[res.State], nextAction)
	}
	t.q[state][action] += t.alpha * (target - t.q[state][action])
}

// explore picks an epsilon-greedy action, breaking ties at random
func (t *tabular) explore(state int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.rng.Float64() < t.epsilon {
		return t.rng.Intn(len(t.q[state]))
	}
	best := argmaxAll(t.q[state])
	return best[t.rng.Intn(len(best))]
}

// greedy picks the first action with the highest value
func (t *tabular) greedy(state int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return argmaxAll(t.q[state])[0]
}

func (t *tabular) PlayPolicy(ctx context.Context, step core.FrameFunc) ([]core.Frame, error) {
	state, err := t.env.Reset()
	if err != nil {
		return nil, fmt.Errorf("%s: play policy: %w", t.name, err)
	}

	var frames []core.Frame
	emit := func() error {
		frame, err := t.env.Render()
		if err != nil {
			return fmt.Errorf("%s: play policy: %w", t.name, err)
		}
		frames = append(frames, frame)
		if step != nil {
			return step(frame)
		}
		return nil
	}

	if err := emit(); err != nil {
		return nil, err
	}
	for steps := 1; steps <= t.maxSteps; steps++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := t.env.Step(t.greedy(state))
		if err != nil {
			return nil, fmt.Errorf("%s: play policy: %w", t.name, err)
		}
		if err := emit(); err != nil {
			return nil, err
		}
		if res.Done() {
			break
		}
		state = res.State
	}
	return frames, nil
}

func (t *tabular) LearningData() map[string]any {
	t.mu.RLock()
	q := make([][]float64, len(t.q))
	for s, row := range t.q {
		q[s] = append([]float64(nil), row...)
	}
	epsilon, episodes := t.epsilon, t.episodes
	t.mu.RUnlock()

	return map[string]any{
		"q_table":         q,
		"epsilon":         epsilon,
		"episodes":        episodes,
		"episode_rewards": t.rewards.All(),
		"mean_reward":     t.rewards.Mean(meanRewardWindow),
	}
}

func argmaxAll(values []float64) []int {
	best := []int{0}
	for a := 1; a < len(values); a++ {
		switch {
		case values[a] > values[best[0]]:
			best = []int{a}
		case values[a] == values[best[0]]:
			best = append(best, a)
		}
	}
	return best
}

func maxValue(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = max(m, v)
	}
	return m
}
