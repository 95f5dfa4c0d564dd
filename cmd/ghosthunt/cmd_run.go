package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MRamiBalles/CasaEmbrujada/internal/engine"
	"github.com/MRamiBalles/CasaEmbrujada/internal/events"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/metrics"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/ux"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one investigation and print the results",
		Long: `Run one investigation. Hunters come from --hunter flags, or are
entered at the prompt (name, then id, until 'done').

When storage.path is set the run and its events are archived.

Examples:
  ghosthunt run
  ghosthunt run --hunter Ray:1 --hunter Egon:2 --ghost Banshee
  GHOSTHUNT_STORAGE_PATH=runs.db ghosthunt run --hunter Ray:1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, nil)
			if err != nil {
				return err
			}
			if ghost, _ := cmd.Flags().GetString("ghost"); ghost != "" {
				cfg.Simulation.GhostType = ghost
			}

			var hunters []hunterEntry
			flags, _ := cmd.Flags().GetStringArray("hunter")
			for _, f := range flags {
				h, err := parseHunterFlag(f)
				if err != nil {
					return err
				}
				hunters = append(hunters, h)
			}
			if len(hunters) == 0 {
				hunters, err = promptHunters(cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
			}

			var rnd engine.Rand
			if cmd.Flags().Changed("seed") {
				seed, _ := cmd.Flags().GetUint64("seed")
				rnd = engine.NewSeededRand(seed)
			}

			m := metrics.Get()
			var persister events.EventPersister
			var arc *archive
			if cfg.Storage.Path != "" {
				arc, err = openArchive(cfg.Storage.Path)
				if err != nil {
					return err
				}
				defer arc.Close()
				persister = arc.persister(m)
			}

			eventLog := events.NewEventLog(persister)
			eventLog.OnPersistError(func(err error) {
				log.Error("Failed to archive event", err)
			})

			house, err := newHouse(cfg, eventLog, log, m, rnd)
			if err != nil {
				eventLog.Close()
				return err
			}
			for _, h := range hunters {
				if err := house.AddHunter(h.Name, h.ID); err != nil {
					log.Warn("Skipping hunter: " + err.Error())
				}
			}

			report, err := house.Run()
			eventLog.Close()
			if err != nil {
				return err
			}

			if err := ux.RenderReport(cmd.OutOrStdout(), report); err != nil {
				return err
			}

			if arc != nil {
				if err := arc.reports.Save(cmd.Context(), runRecord(report)); err != nil {
					return fmt.Errorf("archive run: %w", err)
				}
				log.Info("Run " + report.RunID + " archived to " + cfg.Storage.Path)
			}
			return nil
		},
	}

	cmd.Flags().StringArray("hunter", nil, "Hunter as name:id (repeatable); prompts when omitted")
	cmd.Flags().String("ghost", "", "Ghost type (random when empty)")
	cmd.Flags().Uint64("seed", 0, "Seed the random source")
	return cmd
}
