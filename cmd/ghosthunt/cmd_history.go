package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MRamiBalles/CasaEmbrujada/internal/infra/storage"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/ux"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show archived runs",
		Long: `Show archived runs, newest first. With --run, show one run and a recap
of its events; add --actor to rebuild that actor's path instead.

Examples:
  ghosthunt history --db runs.db
  ghosthunt history --db runs.db --run 4f1c... --actor hunter-2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd, nil)
			if err != nil {
				return err
			}
			if db, _ := cmd.Flags().GetString("db"); db != "" {
				cfg.Storage.Path = db
			}
			if cfg.Storage.Path == "" {
				return errors.New("no archive: set storage.path or --db")
			}

			arc, err := openArchive(cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer arc.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			jsonOut, _ := cmd.Flags().GetBool("json")
			runID, _ := cmd.Flags().GetString("run")
			actorID, _ := cmd.Flags().GetString("actor")

			if runID == "" {
				limit, _ := cmd.Flags().GetInt("limit")
				runs, err := arc.reports.List(ctx, limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return json.NewEncoder(out).Encode(runs)
				}
				return ux.RenderHistory(out, runs)
			}

			rec := storage.NewReconstructor(arc.events)
			if actorID != "" {
				tl, err := rec.RebuildTimeline(ctx, runID, actorID)
				if err != nil {
					return err
				}
				if jsonOut {
					return json.NewEncoder(out).Encode(tl)
				}
				return ux.RenderTimeline(out, tl)
			}

			run, err := arc.reports.Get(ctx, runID)
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %s not found", runID)
			}
			recap, err := rec.GenerateRecap(ctx, runID)
			if err != nil {
				return err
			}
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{"run": run, "recap": recap})
			}

			if err := ux.RenderHistory(out, []storage.RunRecord{*run}); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nEvidence: %s\n", run.Evidence)
			for _, h := range run.Hunters {
				fmt.Fprintf(out, "  %-16s id=%-4d %-8s fear=%-2d boredom=%-2d %s\n",
					h.Name, h.HunterID, h.Reason, h.Fear, h.Boredom, h.Room)
			}
			fmt.Fprintln(out)
			for _, line := range recap {
				fmt.Fprintf(out, "%5d  %s\n", line.Seq, line.Summary)
			}
			return nil
		},
	}

	cmd.Flags().String("db", "", "Archive file (overrides storage.path)")
	cmd.Flags().Int("limit", 20, "Number of runs to list")
	cmd.Flags().String("run", "", "Show one run")
	cmd.Flags().String("actor", "", "With --run, rebuild one actor's path (hunter-<id> or ghost-<id>)")
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}
