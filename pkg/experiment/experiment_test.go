package experiment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/rlplayground/internal/testutil"
	"github.com/boristopalov/rlplayground/pkg/algorithm"
	"github.com/boristopalov/rlplayground/pkg/config"
	"github.com/boristopalov/rlplayground/pkg/environment"
	"github.com/boristopalov/rlplayground/pkg/history"
	"github.com/boristopalov/rlplayground/pkg/session"
)

type recordingJournal struct {
	mu       sync.Mutex
	sessions []history.SessionRecord
	episodes []history.EpisodeRecord
	err      error
}

func (j *recordingJournal) RecordSession(_ context.Context, rec history.SessionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sessions = append(j.sessions, rec)
	return j.err
}

func (j *recordingJournal) RecordEpisode(_ context.Context, rec history.EpisodeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.episodes = append(j.episodes, rec)
	return j.err
}

func fakeCoordinator(factory *testutil.Factory) *session.Coordinator {
	return session.NewCoordinator(&testutil.Provider{Names: []string{"Fake"}}, factory)
}

func testConfig() *config.ExperimentConfig {
	return &config.ExperimentConfig{
		Name:        "test",
		Algorithm:   config.AlgorithmConfig{Name: "Fake"},
		Environment: config.EnvConfig{Name: "Fake"},
		Episodes:    5,
		ReportEvery: 2,
		Playback:    true,
	}
}

func TestRunRecordsJournalAndPlayback(t *testing.T) {
	journal := &recordingJournal{}
	exp := NewExperiment(testConfig(), fakeCoordinator(&testutil.Factory{Names: []string{"Fake"}}), WithJournal(journal))

	res, err := exp.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.SessionID)
	assert.Len(t, res.Rewards, 5)
	assert.Len(t, res.Frames, 3)
	assert.Equal(t, 5, res.LearningData["episodes"])

	require.Len(t, journal.sessions, 1)
	assert.Equal(t, res.SessionID, journal.sessions[0].ID)
	assert.Equal(t, "Fake", journal.sessions[0].Algorithm)
	assert.Len(t, journal.episodes, 5)

	status := exp.GetStatus()
	assert.False(t, status.Running)
	assert.False(t, status.EndTime.Before(status.StartTime))
	assert.Empty(t, status.Errors)
}

func TestRunWithoutPlayback(t *testing.T) {
	cfg := testConfig()
	cfg.Playback = false
	exp := NewExperiment(cfg, fakeCoordinator(&testutil.Factory{Names: []string{"Fake"}}))

	res, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Frames)
}

func TestRunJournalErrorsAreNotFatal(t *testing.T) {
	journal := &recordingJournal{err: errors.New("disk full")}
	exp := NewExperiment(testConfig(), fakeCoordinator(&testutil.Factory{Names: []string{"Fake"}}), WithJournal(journal))

	_, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, exp.GetStatus().Errors, 6)
}

func TestRunTrainingFailure(t *testing.T) {
	boom := errors.New("boom")
	factory := &testutil.Factory{
		Names:     []string{"Fake"},
		Configure: func(a *testutil.Algorithm) { a.TrainErr = boom; a.FailAfter = 2 },
	}
	exp := NewExperiment(testConfig(), fakeCoordinator(factory))

	res, err := exp.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, res)

	status := exp.GetStatus()
	assert.False(t, status.Running)
	require.Len(t, status.Errors, 1)
}

func TestRunUnknownAlgorithm(t *testing.T) {
	cfg := testConfig()
	cfg.Algorithm.Name = "Nope"
	exp := NewExperiment(cfg, fakeCoordinator(&testutil.Factory{Names: []string{"Fake"}}))

	_, err := exp.Run(context.Background())
	assert.Error(t, err)
}

func TestRunFrozenLakeWithChart(t *testing.T) {
	seed := int64(7)
	dir := t.TempDir()
	cfg := &config.ExperimentConfig{
		Name:        "lake",
		Algorithm:   config.AlgorithmConfig{Name: algorithm.QLearningName},
		Environment: config.EnvConfig{Name: "FrozenLake", Seed: &seed},
		Episodes:    50,
		ReportEvery: 10,
		Playback:    true,
		ChartPath:   filepath.Join(dir, "charts", "lake.html"),
	}
	coord := session.NewCoordinator(environment.NewProvider(), algorithm.Default())
	defer coord.ResetAll()

	res, err := NewExperiment(cfg, coord).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Rewards, 50)
	assert.NotEmpty(t, res.Frames)
	assert.Contains(t, res.LearningData, "q_table")

	data, err := os.ReadFile(cfg.ChartPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Q-Learning on FrozenLake")
}
