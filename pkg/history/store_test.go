package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/rlplayground/pkg/core"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreSessions(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	seed := int64(42)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, store.RecordSession(ctx, SessionRecord{
		ID:          "b",
		Algorithm:   "SARSA",
		Environment: "CliffWalking",
		CreatedAt:   created.Add(time.Minute),
	}))
	require.NoError(t, store.RecordSession(ctx, SessionRecord{
		ID:          "a",
		Algorithm:   "Q-Learning",
		Environment: "FrozenLake",
		Parameters:  core.Parameters{"epsilon": 0.1},
		Seed:        &seed,
		CreatedAt:   created,
	}))

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "a", sessions[0].ID)
	assert.Equal(t, core.Parameters{"epsilon": 0.1}, sessions[0].Parameters)
	require.NotNil(t, sessions[0].Seed)
	assert.Equal(t, int64(42), *sessions[0].Seed)
	assert.True(t, created.Equal(sessions[0].CreatedAt))
	assert.Nil(t, sessions[1].Seed)

	assert.Error(t, store.RecordSession(ctx, SessionRecord{ID: "a", CreatedAt: created}), "ids are unique")
}

func TestStoreEpisodes(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i, r := range []float64{0, 1, 0.5} {
		require.NoError(t, store.RecordEpisode(ctx, EpisodeRecord{SessionID: "s", Episode: i + 1, Reward: r, Steps: 3}))
	}
	require.NoError(t, store.RecordEpisode(ctx, EpisodeRecord{SessionID: "other", Episode: 1, Reward: 9}))

	episodes, err := store.Episodes(ctx, "s")
	require.NoError(t, err)
	require.Len(t, episodes, 3)
	assert.Equal(t, 3, episodes[2].Episode)
	assert.False(t, episodes[0].At.IsZero())

	rewards, err := store.Rewards(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0.5}, rewards)

	none, err := store.Rewards(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}
