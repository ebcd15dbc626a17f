package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/boristopalov/rlplayground/internal/display"
	"github.com/boristopalov/rlplayground/internal/server"
	"github.com/boristopalov/rlplayground/pkg/algorithm"
	"github.com/boristopalov/rlplayground/pkg/chart"
	"github.com/boristopalov/rlplayground/pkg/config"
	"github.com/boristopalov/rlplayground/pkg/environment"
	"github.com/boristopalov/rlplayground/pkg/experiment"
	"github.com/boristopalov/rlplayground/pkg/history"
	"github.com/boristopalov/rlplayground/pkg/logging"
	"github.com/boristopalov/rlplayground/pkg/messaging"
	"github.com/boristopalov/rlplayground/pkg/session"
)

func runExperiment(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	noColor, _ := cmd.Flags().GetBool("no-color")

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	provider := environment.NewProvider()
	coord := session.NewCoordinator(provider, algorithm.Default(), session.WithLogger(logger))
	defer coord.ResetAll()

	opts := []experiment.Option{experiment.WithLogger(logger)}
	if cfg.HistoryPath != "" {
		store, err := openJournal(cfg.HistoryPath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, experiment.WithJournal(store))
	}

	res, err := experiment.NewExperiment(cfg, coord, opts...).Run(ctx)
	if err != nil {
		return fmt.Errorf("experiment failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session %s: %d episodes in %s, %d playback frames\n",
		res.SessionID, len(res.Rewards), res.Duration.Round(time.Millisecond), len(res.Frames))

	info, err := provider.Describe(cfg.Environment.Name)
	if err != nil {
		return err
	}
	q, err := display.QTable(res.LearningData)
	if err != nil {
		return err
	}
	printer := display.NewPrinter(out, !noColor)
	fmt.Fprintln(out, "\ngreedy policy:")
	if err := printer.Policy(info, q); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nstate values:")
	return printer.Values(info, q)
}

func serve(cmd *cobra.Command, args []string) error {
	cfg := config.LoadServerConfig()
	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	broker := messaging.NewBroker()
	defer broker.Reset()

	provider := environment.NewProvider()
	registry := algorithm.Default()
	coord := session.NewCoordinator(provider, registry, session.WithLogger(logger))

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithBroker(broker),
		server.WithAddr(cfg.Addr),
	}
	if cfg.HistoryPath != "" {
		store, err := openJournal(cfg.HistoryPath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, server.WithJournal(store))
	}

	return server.New(coord, registry, provider, opts...).Start(ctx)
}

func listAlgorithms(cmd *cobra.Command, args []string) error {
	env, _ := cmd.Flags().GetString("environment")
	registry := algorithm.Default()
	out := cmd.OutOrStdout()

	for _, name := range registry.Available() {
		schema, err := registry.ParameterSchema(name, env)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, name)
		for _, p := range schema.Names() {
			spec := schema[p]
			fmt.Fprintf(out, "  %-14s %-5s default %-8g range [%g, %g]  %s\n",
				p, spec.Type, spec.Default, spec.Min, spec.Max, spec.Description)
		}
	}
	return nil
}

func listEnvironments(cmd *cobra.Command, args []string) error {
	provider := environment.NewProvider()
	out := cmd.OutOrStdout()

	for _, name := range provider.Available() {
		info, err := provider.Describe(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (%dx%d, %d states, actions %s, max %d steps)\n  %s\n",
			info.Name, info.Rows, info.Cols, info.NumStates, strings.Join(info.Actions, "/"), info.MaxSteps, info.Description)
	}
	return nil
}

func chartRewards(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	ids, _ := cmd.Flags().GetStringSlice("session")
	outPath, _ := cmd.Flags().GetString("out")
	window, _ := cmd.Flags().GetInt("window")

	store, err := openJournal(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	records, err := store.Sessions(ctx)
	if err != nil {
		return err
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var runs []chart.Run
	for _, rec := range records {
		if len(ids) > 0 && !wanted[rec.ID] {
			continue
		}
		rewards, err := store.Rewards(ctx, rec.ID)
		if err != nil {
			return err
		}
		runs = append(runs, chart.Run{
			Name:    fmt.Sprintf("%s/%s %s", rec.Algorithm, rec.Environment, rec.ID[:min(8, len(rec.ID))]),
			Rewards: rewards,
			Window:  window,
		})
	}
	if len(runs) == 0 {
		return fmt.Errorf("no journaled sessions to chart in %s", dbPath)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := chart.RenderRewards(f, "Training rewards", runs...); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d runs to %s\n", len(runs), outPath)
	return nil
}

func openJournal(path string) (*history.Store, error) {
	store, err := history.Open(path)
	if err != nil {
		return nil, err
	}
	if err := store.Init(); err != nil {
		store.Close()
		return nil, fmt.Errorf("init journal: %w", err)
	}
	return store, nil
}
