// Command ghosthunt runs ghost investigations: one house at the terminal, a
// paced stream for spectators, and the archive of past runs.
// It only wires packages together. NO simulation rules belong here.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MRamiBalles/CasaEmbrujada/internal/config"
	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/evidence"
	"github.com/MRamiBalles/CasaEmbrujada/internal/engine"
	"github.com/MRamiBalles/CasaEmbrujada/internal/events"
	"github.com/MRamiBalles/CasaEmbrujada/internal/layout"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/logger"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/metrics"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ghosthunt",
		Short: "Send a team of hunters into a haunted house",
		Long: `ghosthunt simulates a team of ghost hunters searching a house for
evidence while a ghost wanders the rooms. Every hunter and the ghost
run concurrently; the hunters win when one of them leaves having
identified the ghost.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "TOML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: console or json")

	rootCmd.AddCommand(
		newRunCmd(),
		newServeCmd(),
		newHistoryCmd(),
		newLayoutCmd(),
	)
	return rootCmd
}

// setup loads the config on top of base and builds the logger. Log flags
// override both the file and the environment.
func setup(cmd *cobra.Command, base *config.Config) (*config.Config, *logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(base, path)
	if err != nil {
		return nil, nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: logger.Format(cfg.Log.Format),
		Out:    cmd.ErrOrStderr(),
		App:    "ghosthunt",
	})
	return cfg, log, nil
}

// newHouse builds the configured layout and prepares a house on it. A nil
// rnd uses the shared random source.
func newHouse(cfg *config.Config, emitter events.Emitter, log *logger.Logger, m *metrics.Collector, rnd engine.Rand) (*engine.House, error) {
	spec, err := layout.LoadOrDefault(cfg.Layout.Path)
	if err != nil {
		return nil, err
	}
	graph, err := layout.Build(spec, spec.Name)
	if err != nil {
		return nil, err
	}

	opts := engine.HouseOptions{
		Limits: engine.Limits{
			FearMax:      cfg.Simulation.FearMax,
			BoredomMax:   cfg.Simulation.BoredomMax,
			EvidenceOdds: cfg.Simulation.EvidenceOdds,
		},
		Rand:       rnd,
		Metrics:    m,
		StepDelay:  cfg.Simulation.StepDelay,
		StepJitter: cfg.Simulation.StepJitter,
	}
	if name := cfg.Simulation.GhostType; name != "" {
		gt, ok := evidence.ParseGhostType(name)
		if !ok {
			return nil, fmt.Errorf("unknown ghost type %q", name)
		}
		opts.GhostType = gt
	}
	return engine.NewHouse(graph, emitter, log, opts)
}
