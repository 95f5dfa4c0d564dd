package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/CasaEmbrujada/internal/config"
	"github.com/MRamiBalles/CasaEmbrujada/internal/events"
	"github.com/MRamiBalles/CasaEmbrujada/internal/network"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/logger"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/metrics"
)

// keptRuns is how many recent runs the server holds for replay, both events
// and reports.
const keptRuns = network.DefaultBoardSize

var defaultRoster = []string{"Ray", "Egon", "Peter", "Winston", "Janine", "Dana", "Louis", "Walter"}

// spectatorServer is everything a paced session shares between runs.
type spectatorServer struct {
	cfg      *config.Config
	log      *logger.Logger
	metrics  *metrics.Collector
	eventLog *events.EventLog
	board    *network.ReportBoard
	archive  *archive

	hunters []hunterEntry
	runs    int
	rest    time.Duration
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run paced investigations and stream them to spectators",
		Long: `Run investigations one after another at a pace people can follow,
streaming every event over a websocket.

Endpoints:
  /ws           live events (query: run, actor, type)
  /api/replay   recorded events (query: run, actor, type)
  /api/report   latest report, or ?run=
  /api/stats    event counts
  /metrics      Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, config.Spectator())
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}

			s := &spectatorServer{cfg: cfg, log: log, metrics: metrics.Get(), board: network.NewReportBoard(keptRuns)}
			s.runs, _ = cmd.Flags().GetInt("runs")
			s.rest, _ = cmd.Flags().GetDuration("rest")

			flags, _ := cmd.Flags().GetStringArray("hunter")
			for _, f := range flags {
				h, err := parseHunterFlag(f)
				if err != nil {
					return err
				}
				s.hunters = append(s.hunters, h)
			}
			if len(s.hunters) == 0 {
				n, _ := cmd.Flags().GetInt("team")
				s.hunters = roster(n)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.serve(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().StringArray("hunter", nil, "Hunter as name:id (repeatable)")
	cmd.Flags().Int("team", 4, "Number of hunters when no --hunter is given")
	cmd.Flags().Int("runs", 0, "Stop starting runs after this many (0 = until interrupted)")
	cmd.Flags().Duration("rest", 5*time.Second, "Pause between runs")
	return cmd
}

// roster names n hunters from the default team, numbering repeats.
func roster(n int) []hunterEntry {
	if n <= 0 {
		n = 1
	}
	out := make([]hunterEntry, 0, n)
	for i := 0; i < n; i++ {
		name := defaultRoster[i%len(defaultRoster)]
		if i >= len(defaultRoster) {
			name += strconv.Itoa(i/len(defaultRoster) + 1)
		}
		out = append(out, hunterEntry{Name: name, ID: i + 1})
	}
	return out
}

func (s *spectatorServer) serve(ctx context.Context) error {
	var persister events.EventPersister
	if s.cfg.Storage.Path != "" {
		arc, err := openArchive(s.cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer arc.Close()
		s.archive = arc
		persister = arc.persister(s.metrics)
	}
	s.eventLog = events.NewEventLog(persister)
	s.eventLog.RetainRuns(keptRuns)
	s.eventLog.OnPersistError(func(err error) {
		s.log.Error("Failed to archive event", err)
	})
	defer s.eventLog.Close()

	s.log.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(s.log, s.metrics)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, s.eventLog, network.DefaultPollInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWs)
	mux.Handle("/metrics", s.metrics.Handler())
	network.NewReplayHandler(s.eventLog, s.board, s.log).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("HTTP API & WS server listening on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return s.loop(gctx)
	})
	return g.Wait()
}

// loop starts runs until ctx ends or the run limit is reached. A run in
// progress always finishes.
func (s *spectatorServer) loop(ctx context.Context) error {
	for i := 0; s.runs == 0 || i < s.runs; i++ {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.runOnce(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.rest):
		}
	}
	s.log.Info("Run limit reached; still serving replays")
	return nil
}

func (s *spectatorServer) runOnce(ctx context.Context) error {
	house, err := newHouse(s.cfg, s.eventLog, s.log, s.metrics, nil)
	if err != nil {
		return err
	}
	for _, h := range s.hunters {
		if err := house.AddHunter(h.Name, h.ID); err != nil {
			s.log.Warn("Skipping hunter: " + err.Error())
		}
	}

	report, err := house.Run()
	if err != nil {
		return err
	}
	s.board.Publish(report)

	if s.archive != nil {
		if err := s.archive.reports.Save(context.WithoutCancel(ctx), runRecord(report)); err != nil {
			s.log.Error("Failed to archive run "+report.RunID, err)
		}
	}
	return nil
}
