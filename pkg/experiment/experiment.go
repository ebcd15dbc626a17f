package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/boristopalov/rlplayground/pkg/chart"
	"github.com/boristopalov/rlplayground/pkg/config"
	"github.com/boristopalov/rlplayground/pkg/core"
	"github.com/boristopalov/rlplayground/pkg/history"
	"github.com/boristopalov/rlplayground/pkg/logging"
	"github.com/boristopalov/rlplayground/pkg/memory"
	"github.com/boristopalov/rlplayground/pkg/session"
)

// Sessions is the part of the session coordinator an experiment drives
type Sessions interface {
	CreateSession(ctx context.Context, algorithmName, environmentName string, params core.Parameters, seed *int64) (string, error)
	Train(ctx context.Context, id string, numEpisodes int, progress core.ProgressFunc) error
	PlayPolicy(ctx context.Context, id string, step core.FrameFunc) ([]core.Frame, error)
	GetSession(id string) (session.Info, bool)
	LearningData(id string) (map[string]any, error)
}

// Journal records training runs
type Journal interface {
	RecordSession(ctx context.Context, rec history.SessionRecord) error
	RecordEpisode(ctx context.Context, rec history.EpisodeRecord) error
}

// Result is what a finished experiment produced
type Result struct {
	SessionID    string
	Rewards      []float64
	Frames       []core.Frame
	LearningData map[string]any
	Duration     time.Duration
}

// Experiment trains one session from a config and optionally replays it
type Experiment struct {
	cfg      *config.ExperimentConfig
	sessions Sessions
	journal  Journal
	logger   *slog.Logger
	mu       sync.RWMutex
	status   core.ExperimentStatus
}

type Option func(*Experiment)

func WithJournal(j Journal) Option {
	return func(e *Experiment) {
		e.journal = j
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Experiment) {
		e.logger = l
	}
}

func NewExperiment(cfg *config.ExperimentConfig, sessions Sessions, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:      cfg,
		sessions: sessions,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Experiment) GetStatus() core.ExperimentStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	status := e.status
	status.Errors = append([]error(nil), e.status.Errors...)
	return status
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	e.status = core.ExperimentStatus{Running: true, StartTime: time.Now()}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.status.Running = false
		e.status.EndTime = time.Now()
		e.mu.Unlock()
	}()

	res, err := e.run(ctx)
	if err != nil {
		e.recordError(err)
	}
	return res, err
}

func (e *Experiment) run(ctx context.Context) (*Result, error) {
	start := time.Now()
	cfg := e.cfg

	id, err := e.sessions.CreateSession(ctx, cfg.Algorithm.Name, cfg.Environment.Name, cfg.Algorithm.Parameters, cfg.Environment.Seed)
	if err != nil {
		return nil, err
	}
	logger := e.logger.With("experiment", cfg.Name, "session_id", id)
	logger.Info("experiment started", "algorithm", cfg.Algorithm.Name, "environment", cfg.Environment.Name, "episodes", cfg.Episodes)

	if e.journal != nil {
		info, _ := e.sessions.GetSession(id)
		e.journalErr(logger, e.journal.RecordSession(ctx, history.SessionRecord{
			ID:          id,
			Algorithm:   info.AlgorithmName,
			Environment: info.EnvironmentName,
			Parameters:  info.Parameters,
			Seed:        info.Seed,
			CreatedAt:   info.CreatedAt,
		}))
	}

	recent := memory.NewRewardHistory(cfg.ReportEvery)
	rewards := make([]float64, 0, cfg.Episodes)
	err = e.sessions.Train(ctx, id, cfg.Episodes, func(u core.EpisodeUpdate) error {
		rewards = append(rewards, u.Reward)
		recent.Store(u.Reward)
		if e.journal != nil {
			e.journalErr(logger, e.journal.RecordEpisode(ctx, history.EpisodeRecord{
				SessionID: id,
				Episode:   u.Episode,
				Reward:    u.Reward,
				Steps:     u.Steps,
			}))
		}
		if u.Episode%cfg.ReportEvery == 0 {
			logger.Info("training progress", "episode", u.Episode, "mean_reward", recent.Mean(0))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("train session %s: %w", id, err)
	}

	res := &Result{SessionID: id, Rewards: rewards}
	if cfg.Playback {
		frames, err := e.sessions.PlayPolicy(ctx, id, nil)
		if err != nil {
			return nil, fmt.Errorf("play policy of session %s: %w", id, err)
		}
		res.Frames = frames
	}
	if res.LearningData, err = e.sessions.LearningData(id); err != nil {
		return nil, err
	}

	if cfg.ChartPath != "" {
		if err := writeChart(cfg.ChartPath, fmt.Sprintf("%s on %s", cfg.Algorithm.Name, cfg.Environment.Name), cfg.Name, rewards); err != nil {
			return nil, err
		}
		logger.Info("chart written", "path", cfg.ChartPath)
	}

	res.Duration = time.Since(start)
	logger.Info("experiment finished", "duration", res.Duration, "frames", len(res.Frames))
	return res, nil
}

func (e *Experiment) journalErr(logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	logger.Warn("failed to write journal", "error", err)
	e.recordError(err)
}

func (e *Experiment) recordError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.Errors = append(e.status.Errors, err)
}

func writeChart(path, title, name string, rewards []float64) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create chart dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	defer f.Close()
	if err := chart.RenderRewards(f, title, chart.Run{Name: name, Rewards: rewards}); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
