package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "rlplay",
		Short:        "rlplay trains tabular reinforcement learning agents on grid worlds and replays what they learned.",
		SilenceUsage: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Train and replay one session from a yaml experiment file",
		RunE:  runExperiment,
	}
	runCmd.Flags().StringP("config", "c", "experiment.yaml", "experiment config file")
	runCmd.Flags().Bool("no-color", false, "disable coloured policy output")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the training API configured by RLPLAY_* variables",
		RunE:  serve,
	}

	algorithmsCmd := &cobra.Command{
		Use:   "algorithms",
		Short: "List algorithms and their parameter schemas",
		RunE:  listAlgorithms,
	}
	algorithmsCmd.Flags().StringP("environment", "e", "", "show the defaults tuned for this environment")

	environmentsCmd := &cobra.Command{
		Use:   "environments",
		Short: "List the available environments",
		RunE:  listEnvironments,
	}

	chartCmd := &cobra.Command{
		Use:   "chart",
		Short: "Chart journaled training rewards as an HTML page",
		RunE:  chartRewards,
	}
	chartCmd.Flags().String("db", "rlplay.db", "training journal")
	chartCmd.Flags().StringSlice("session", nil, "session ids to chart (default all)")
	chartCmd.Flags().StringP("out", "o", "rewards.html", "output file")
	chartCmd.Flags().Int("window", 0, "moving average window")

	for _, envFile := range []string{
		".env",
		"../../.env",
		"../../../.env",
	} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	rootCmd.AddCommand(runCmd, serveCmd, algorithmsCmd, environmentsCmd, chartCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
