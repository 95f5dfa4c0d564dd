// Command stress-runner runs many houses at once and checks room occupancy
// and the case file while the actors move.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MRamiBalles/CasaEmbrujada/internal/layout"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/logger"
	"github.com/MRamiBalles/CasaEmbrujada/test"
)

func main() {
	def := test.DefaultStressConfig()
	cfg := def
	var layoutPath, logLevel string

	rootCmd := &cobra.Command{
		Use:          "stress-runner",
		Short:        "Stress the engine with many concurrent houses",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if layoutPath != "" {
				spec, err := layout.Load(layoutPath)
				if err != nil {
					return err
				}
				cfg.Layout = &spec
			}
			log := logger.New(logger.Options{Level: logLevel, Out: cmd.ErrOrStderr(), App: "stress-runner"})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, cmd, cfg, log)
		},
	}

	f := rootCmd.Flags()
	f.IntVar(&cfg.Houses, "houses", def.Houses, "Houses to run")
	f.IntVar(&cfg.Hunters, "hunters", def.Hunters, "Hunters per house")
	f.IntVar(&cfg.Parallel, "parallel", 0, "Houses running at once (0 = all)")
	f.Uint64Var(&cfg.Seed, "seed", 0, "Seed (0 = random)")
	f.DurationVar(&cfg.StepJitter, "jitter", def.StepJitter, "Random pause after each actor step")
	f.DurationVar(&cfg.SampleEvery, "sample", def.SampleEvery, "Sampling interval")
	f.StringVar(&layoutPath, "layout", "", "Layout file (.toml or .yaml)")
	f.StringVar(&logLevel, "log-level", "warn", "Log level")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cobra.Command, cfg test.StressConfig, log *logger.Logger) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "GHOST HUNT - STRESS SUITE")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "%d houses x %d hunters, jitter %s\n\n", cfg.Houses, cfg.Hunters, cfg.StepJitter)

	res, err := test.RunStress(ctx, cfg, log)
	if err != nil {
		return err
	}

	wins, samples := 0, 0
	for _, h := range res.Houses {
		samples += h.Samples
		if h.Report.HuntersWon {
			wins++
		}
		status := "ok"
		if len(h.Violations) > 0 {
			status = fmt.Sprintf("%d violations", len(h.Violations))
		}
		fmt.Fprintf(out, "  %-40s %-12s %-14s %s\n", h.Report.HouseID, h.Report.GhostName, h.Report.Verdict(), status)
	}

	fmt.Fprintln(out, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(out, "SUMMARY")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "  elapsed:      %s\n", res.Elapsed)
	fmt.Fprintf(out, "  samples:      %d\n", samples)
	fmt.Fprintf(out, "  hunters won:  %d/%d\n", wins, len(res.Houses))

	keys := make([]string, 0, len(res.Metrics))
	for k := range res.Metrics {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %-56s %g\n", k, res.Metrics[k])
	}

	if !res.Passed() {
		for _, v := range res.Violations() {
			fmt.Fprintln(out, "  VIOLATION "+v)
		}
		return fmt.Errorf("%d violations", len(res.Violations()))
	}
	fmt.Fprintln(out, "\nShared state stayed consistent.")
	return nil
}
