package memory

import "sync"

// RewardHistory keeps the most recent episode rewards up to a fixed capacity
type RewardHistory struct {
	rewards  []float64
	capacity int
	total    int
	mu       sync.RWMutex
}

func NewRewardHistory(capacity int) *RewardHistory {
	if capacity < 1 {
		capacity = 1
	}
	return &RewardHistory{
		rewards:  make([]float64, 0, capacity),
		capacity: capacity,
	}
}

// All returns a copy of the retained rewards, oldest first
func (m *RewardHistory) All() []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modifications
	rewards := make([]float64, len(m.rewards))
	copy(rewards, m.rewards)
	return rewards
}

// Store appends a reward, evicting the oldest one when full
func (m *RewardHistory) Store(reward float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rewards = append(m.rewards, reward)
	m.total++
	if len(m.rewards) > m.capacity {
		m.rewards = m.rewards[1:]
	}
}

// Len returns how many rewards are retained
func (m *RewardHistory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rewards)
}

// Total returns how many rewards were ever stored
func (m *RewardHistory) Total() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.total
}

// Mean returns the average of the last n retained rewards (all of them if n < 1)
func (m *RewardHistory) Mean(n int) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.rewards) == 0 {
		return 0
	}
	if n < 1 || n > len(m.rewards) {
		n = len(m.rewards)
	}
	sum := 0.0
	for _, r := range m.rewards[len(m.rewards)-n:] {
		sum += r
	}
	return sum / float64(n)
}

// MovingAverage returns the trailing window average for each element of rewards
func MovingAverage(rewards []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(rewards))
	sum := 0.0
	for i, r := range rewards {
		sum += r
		if i >= window {
			sum -= rewards[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}
